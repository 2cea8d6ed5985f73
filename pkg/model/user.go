package model

import "time"

// User ids are the identity provider's subject, not generated ObjectIDs.
type User struct {
	ID        string    `json:"id" bson:"_id"`
	Email     string    `json:"email" bson:"email"`
	Name      string    `json:"name" bson:"name"`
	Role      Role      `json:"role" bson:"role"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

type UserRoleUpdate struct {
	Role Role `json:"role" validate:"required,role"`
}

type UserFilter struct {
	Search string
	Role   Role
}
