package validators

import "go.mongodb.org/mongo-driver/bson"

var VenueValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"name", "location", "capacity", "createdAt"},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"location": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 200,
			},

			"type": bson.M{
				"enum": []any{"", "cafe", "cowork"},
			},

			"rating": bson.M{
				"bsonType": []string{"double", "int", "long"},
				"minimum":  0,
				"maximum":  5,
			},

			"capacity": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  0,
				"maximum":  10000,
			},

			"packages": bson.M{
				"bsonType": []string{"array", "null"},
				"maxItems": 50,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"id", "name", "duration"},
					"properties": bson.M{
						"duration": bson.M{
							"bsonType": []string{"int", "long"},
							"minimum":  1,
							"maximum":  24,
						},
					},
				},
			},

			"status": bson.M{
				"enum": []any{"", "active", "inactive"},
			},

			"createdAt": bson.M{
				"bsonType": "date",
			},
		},
	},
}
