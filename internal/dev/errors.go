package dev

import (
	"github.com/nu7hatch/gouuid"
	"time"
)

// Error is a failure that needs manual reconciliation, such as funds left in escrow after a transfer.
type Error struct {
	Id        string                 `json:"id"`
	Time      time.Time              `json:"time"`
	Component string                 `json:"component"`
	Name      string                 `json:"name"`
	Error     string                 `json:"error"`
	Extra     map[string]interface{} `json:"extra"`
}

func (e Error) Slug() string {
	return e.Id
}

func NewError(component, name string, err error, extra map[string]interface{}) Error {
	id := ""
	if u, uErr := uuid.NewV4(); uErr == nil {
		id = u.String()
	}

	return Error{
		Id:        id,
		Time:      time.Now(),
		Component: component,
		Name:      name,
		Error:     err.Error(),
		Extra:     extra,
	}
}
