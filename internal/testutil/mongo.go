// Package testutil starts throwaway backing services for integration tests.
package testutil

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"commonspace/pkg/client"
	"commonspace/pkg/config"
	"commonspace/pkg/logger"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	MongoImage        = "mongo:7"
	ConnectionTimeout = 30 * time.Second
)

// StartMongo runs a single-node replica set, so transactions work, and
// returns a connected client. The container is removed when the test ends.
// Integration tests are skipped with -short.
func StartMongo(t *testing.T) *mongo.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping MongoDB integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        MongoImage,
			ExposedPorts: []string{"27017/tcp"},
			Cmd:          []string{"--replSet", "rs0", "--bind_ip_all"},
			WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start MongoDB container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate MongoDB container: %v", err)
		}
	})

	if err := initiateReplicaSet(ctx, container); err != nil {
		t.Fatalf("failed to initiate replica set: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("failed to read container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "27017/tcp")
	if err != nil {
		t.Fatalf("failed to read mapped port: %v", err)
	}

	uri := fmt.Sprintf("mongodb://%s:%s/?directConnection=true", host, port.Port())
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("failed to connect to MongoDB: %v", err)
	}
	t.Cleanup(func() { _ = mongoClient.Disconnect(context.Background()) })

	if err := waitForPrimary(ctx, mongoClient); err != nil {
		t.Fatalf("replica set has no primary: %v", err)
	}
	return mongoClient
}

// Config returns a service configuration bound to client and database.
func Config(mongoClient *mongo.Client, database string) *config.Config {
	c := client.NewClient()
	c.Mongo = mongoClient
	return &config.Config{
		MongoDatabaseName: database,
		ReadTimeout:       ConnectionTimeout,
		WriteTimeout:      ConnectionTimeout,
		SlotLockTTL:       config.DefaultSlotLockTTL,
		Location:          time.UTC,
		Log:               logger.Discard(),
		Client:            c,
	}
}

func initiateReplicaSet(ctx context.Context, container testcontainers.Container) error {
	code, out, err := container.Exec(ctx, []string{
		"mongosh", "--quiet", "--eval",
		`try { rs.status().ok } catch (e) { rs.initiate({_id: "rs0", members: [{_id: 0, host: "localhost:27017"}]}).ok }`,
	})
	if err != nil {
		return err
	}
	if code != 0 {
		output, _ := io.ReadAll(out)
		return fmt.Errorf("rs.initiate exited with %d: %s", code, strings.TrimSpace(string(output)))
	}
	return nil
}

func waitForPrimary(ctx context.Context, c *mongo.Client) error {
	for {
		var result struct {
			IsWritablePrimary bool `bson:"isWritablePrimary"`
		}
		err := c.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&result)
		if err == nil && result.IsWritablePrimary {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(250 * time.Millisecond):
		}
	}
}
