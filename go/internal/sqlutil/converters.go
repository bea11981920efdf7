package sqlutil

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Helper functions for converting between Go types and pgtype values

// ToPgText converts a Go string to pgtype.Text; the empty string is NULL
func ToPgText(val string) pgtype.Text {
	if val == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: val, Valid: true}
}

// FromPgText converts pgtype.Text to Go string with default
func FromPgText(val pgtype.Text, defaultVal string) string {
	if !val.Valid {
		return defaultVal
	}
	return val.String
}

// ToPgInt4 converts a Go int to pgtype.Int4; zero is NULL
func ToPgInt4(val int) pgtype.Int4 {
	if val == 0 {
		return pgtype.Int4{Valid: false}
	}
	return pgtype.Int4{Int32: int32(val), Valid: true}
}

// FromPgInt4 converts pgtype.Int4 to Go int, NULL becomes zero
func FromPgInt4(val pgtype.Int4) int {
	if !val.Valid {
		return 0
	}
	return int(val.Int32)
}

// ToPgTimestamptz converts a Go time pointer to pgtype.Timestamptz
func ToPgTimestamptz(val *time.Time) pgtype.Timestamptz {
	if val == nil {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: *val, Valid: true}
}

// FromPgTimestamptz converts pgtype.Timestamptz to Go time pointer
func FromPgTimestamptz(val pgtype.Timestamptz) *time.Time {
	if !val.Valid {
		return nil
	}
	return &val.Time
}
