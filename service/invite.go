package service

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const inviteCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// InviteCodeGenerator produces candidate invite codes
type InviteCodeGenerator interface {
	Generate() (string, error)
}

type nanoidInviteCodeGenerator struct {
	length int
}

// NewInviteCodeGenerator creates a generator of upper-case alphanumeric codes
func NewInviteCodeGenerator(length int) InviteCodeGenerator {
	return &nanoidInviteCodeGenerator{length: length}
}

func (g *nanoidInviteCodeGenerator) Generate() (string, error) {
	return gonanoid.Generate(inviteCodeAlphabet, g.length)
}
