package model

import (
	"time"

	"github.com/google/uuid"
)

type SignerRole string

const (
	SignerRoleOwner  SignerRole = "OWNER"
	SignerRoleTenant SignerRole = "TENANT"
)

func SignerRoles() []SignerRole {
	return []SignerRole{SignerRoleOwner, SignerRoleTenant}
}

func (r SignerRole) Valid() bool {
	return r == SignerRoleOwner || r == SignerRoleTenant
}

type ContractSignature struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ContractID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:uq_signatures_contract_role" json:"contract_id"`
	SignerRole    SignerRole `gorm:"type:varchar(16);not null;uniqueIndex:uq_signatures_contract_role" json:"signer_role"`
	SignerName    string     `gorm:"size:255;not null" json:"signer_name"`
	SignatureData string     `gorm:"type:text;not null" json:"-"`
	SignatureHash string     `gorm:"size:64;not null" json:"signature_hash"`
	IPAddress     *string    `gorm:"column:ip_address;size:64" json:"ip_address,omitempty"`
	SignedAt      time.Time  `gorm:"not null" json:"signed_at"`
	Verified      *bool      `gorm:"-" json:"verified,omitempty"`
}

func (ContractSignature) TableName() string { return "contract_signatures" }
