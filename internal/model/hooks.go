package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (b *Building) BeforeCreate(*gorm.DB) error                { ensureID(&b.ID); return nil }
func (r *Room) BeforeCreate(*gorm.DB) error                    { ensureID(&r.ID); return nil }
func (t *Tenant) BeforeCreate(*gorm.DB) error                  { ensureID(&t.ID); return nil }
func (c *Contract) BeforeCreate(*gorm.DB) error                { ensureID(&c.ID); return nil }
func (t *ContractStateTransition) BeforeCreate(*gorm.DB) error { ensureID(&t.ID); return nil }
func (s *ContractSignature) BeforeCreate(*gorm.DB) error       { ensureID(&s.ID); return nil }
func (p *Payment) BeforeCreate(*gorm.DB) error                 { ensureID(&p.ID); return nil }
func (i *InflationIndex) BeforeCreate(*gorm.DB) error          { ensureID(&i.ID); return nil }
