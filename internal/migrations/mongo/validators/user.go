package validators

import (
	"commonspace/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

func roles() []string {
	out := make([]string, len(model.AllRoles))
	for i, r := range model.AllRoles {
		out[i] = string(r)
	}
	return out
}

var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "email", "role", "createdAt"},
		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},
			"email": bson.M{
				"bsonType": "string",
			},
			"role": bson.M{
				"bsonType": "string",
				"enum":     roles(),
			},
			"createdAt": bson.M{
				"bsonType": "date",
			},
		},
	},
}
