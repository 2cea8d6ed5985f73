package validators

import (
	"commonspace/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

func bookingStatuses() []string {
	out := make([]string, len(model.AllBookingStatuses))
	for i, s := range model.AllBookingStatuses {
		out[i] = string(s)
	}
	return out
}

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"venueId",
			"userId",
			"packageId",
			"date",
			"time",
			"duration",
			"status",
			"createdAt",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"venueId": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"userId": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"userEmail": bson.M{
				"bsonType": "string",
			},

			"packageId": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"packagePrice": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
				"minimum":  0,
			},

			// Dates and times are stored as zero-padded strings so they sort
			// lexically.
			"date": bson.M{
				"bsonType": "string",
				"pattern":  `^\d{4}-\d{2}-\d{2}$`,
			},

			"time": bson.M{
				"bsonType": "string",
				"pattern":  `^([01]\d|2[0-3]):[0-5]\d$`,
			},

			"duration": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
				"maximum":  24,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum":     bookingStatuses(),
			},

			"statusUpdatedAt": bson.M{
				"bsonType": "date",
			},

			"createdAt": bson.M{
				"bsonType": "date",
			},

			"updatedAt": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var BookingLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "owner", "expiresAt"},
		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},
			"owner": bson.M{
				"bsonType": "string",
			},
			"expiresAt": bson.M{
				"bsonType": "date",
			},
		},
	},
}
