// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// UserRevokedTokenTable represents the 'users.revokedtoken' table
type UserRevokedTokenTable struct {
	Table     string
	JTI       string
	UserID    string
	ExpiresIn string
	CreatedAt string
}

// UserRevokedToken is the schema definition for users.revokedtoken
var UserRevokedToken = UserRevokedTokenTable{
	Table:     "users.revokedtoken",
	JTI:       "jti",
	UserID:    "userid",
	ExpiresIn: "expiresin",
	CreatedAt: "createdat",
}

// Columns returns every column in scan order.
func (t UserRevokedTokenTable) Columns() []string {
	return []string{t.JTI, t.UserID, t.ExpiresIn, t.CreatedAt}
}
