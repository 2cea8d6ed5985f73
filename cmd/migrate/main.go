package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	mongoMigration "commonspace/internal/migrations/mongo"
	"commonspace/pkg/client"
	"commonspace/pkg/config"
	"commonspace/pkg/logger"

	"github.com/urfave/cli/v2"
	"go.mongodb.org/mongo-driver/mongo"
)

const JobName = "mongo-migration"

func main() {
	app := &cli.App{
		Name:  "migrate",
		Usage: "Manage the CommonSpace MongoDB schema",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "mongo-uri",
				Usage:   "MongoDB connection string",
				Value:   config.DefaultMongoURI,
				EnvVars: []string{config.EnvMongoURI},
			},
			&cli.StringFlag{
				Name:    "database",
				Usage:   "database to migrate",
				Value:   config.DefaultMongoDatabaseName,
				EnvVars: []string{config.EnvMongoDatabaseName},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "overall deadline for the job",
				Value: 2 * time.Minute,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   config.DefaultLogLevel,
				EnvVars: []string{config.EnvLogLevel},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "create collections, refresh validators and ensure indexes",
				Action: func(c *cli.Context) error {
					return withDatabase(c, func(ctx context.Context, job *job) error {
						return mongoMigration.RunMigration(ctx, job.db(), job.log)
					})
				},
			},
			{
				Name:  "status",
				Usage: "show collections, document counts and indexes",
				Action: func(c *cli.Context) error {
					return withDatabase(c, func(ctx context.Context, job *job) error {
						statuses, err := mongoMigration.Status(ctx, job.db())
						if err != nil {
							return err
						}
						for _, st := range statuses {
							if !st.Exists {
								fmt.Printf("%s\tmissing\n", st.Name)
								continue
							}
							fmt.Printf("%s\t%d documents\t%s\n", st.Name, st.Documents, strings.Join(st.Indexes, ","))
						}
						return nil
					})
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Migration failed:", err)
		os.Exit(1)
	}
}

type job struct {
	client   *client.Client
	database string
	log      *logger.Logger
}

func (j *job) db() *mongo.Database { return j.client.Mongo.Database(j.database) }

func withDatabase(c *cli.Context, fn func(ctx context.Context, j *job) error) error {
	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	log := logger.New(logger.Config{
		Level:   c.String("log-level"),
		Format:  logger.JSON,
		Service: JobName,
	})

	j := &job{client: client.NewClient(), database: c.String("database"), log: log}
	j.client.SetMongo(log, c.String("mongo-uri"), c.Duration("timeout"))
	defer j.client.GracefulShutdown()

	return fn(ctx, j)
}
