// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema names the tables and columns of the SecretBox database.
//
// Repositories build their SQL from these registries so a renamed column is a
// one-line change.
package schema

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table        string
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	OldPasswords string
	Phone        string
	Gender       string
	Role         string
	Provider     string
	Picture      string

	ConfirmedAt            string
	ConfirmOTPHash         string
	ConfirmOTPExpiresAt    string
	ConfirmOTPCount        string
	ConfirmOTPBlockedUntil string
	ForgotOTPHash          string
	ForgotOTPExpiresAt     string

	ChangeCredentialsAt string

	DeletedAt  string
	DeletedBy  string
	RestoredAt string
	RestoredBy string
	CreatedAt  string
	UpdatedAt  string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:        "users.account",
	ID:           "id",
	FirstName:    "firstname",
	LastName:     "lastname",
	Email:        "email",
	PasswordHash: "passwordhash",
	OldPasswords: "oldpasswords",
	Phone:        "phone",
	Gender:       "gender",
	Role:         "role",
	Provider:     "provider",
	Picture:      "picture",

	ConfirmedAt:            "confirmedat",
	ConfirmOTPHash:         "confirmotphash",
	ConfirmOTPExpiresAt:    "confirmotpexpiresat",
	ConfirmOTPCount:        "confirmotpcount",
	ConfirmOTPBlockedUntil: "confirmotpblockeduntil",
	ForgotOTPHash:          "forgototphash",
	ForgotOTPExpiresAt:     "forgototpexpiresat",

	ChangeCredentialsAt: "changecredentialsat",

	DeletedAt:  "deletedat",
	DeletedBy:  "deletedby",
	RestoredAt: "restoredat",
	RestoredBy: "restoredby",
	CreatedAt:  "createdat",
	UpdatedAt:  "updatedat",
}

// Columns returns every column in scan order.
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.FirstName, t.LastName, t.Email, t.PasswordHash, t.OldPasswords,
		t.Phone, t.Gender, t.Role, t.Provider, t.Picture,
		t.ConfirmedAt, t.ConfirmOTPHash, t.ConfirmOTPExpiresAt, t.ConfirmOTPCount, t.ConfirmOTPBlockedUntil,
		t.ForgotOTPHash, t.ForgotOTPExpiresAt, t.ChangeCredentialsAt,
		t.DeletedAt, t.DeletedBy, t.RestoredAt, t.RestoredBy, t.CreatedAt, t.UpdatedAt,
	}
}
