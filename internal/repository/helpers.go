// Package repository implements the domain repository interfaces on SQLite.
package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/GM-Alex/user-access-manager-sub006/internal/domain"
)

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func mapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.NotFoundError{Message: "resource not found"}
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return &domain.ConflictError{Message: "resource already exists"}
	}
	return err
}

// joinRanges serializes IP ranges for storage; splitRanges reverses it.
func joinRanges(ranges []string) string {
	return strings.Join(ranges, ";")
}

func splitRanges(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ";")
}
