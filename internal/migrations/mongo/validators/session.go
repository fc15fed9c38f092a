package validators

import "go.mongodb.org/mongo-driver/bson"

var SessionValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"customer_id",
			"vehicle_id",
			"spot_id",
			"entry_time",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"booking_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"customer_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"vehicle_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"spot_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"entry_time": bson.M{
				"bsonType": "date",
			},

			"exit_time": bson.M{
				"bsonType": "date",
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"active",
					"completed",
				},
			},

			"rate": bson.M{
				"bsonType": "object",
			},

			"duration_minutes": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},

			"total_cost": bson.M{
				"bsonType": "decimal",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
