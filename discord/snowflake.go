package discord

import (
	"fmt"
	"strconv"
	"time"
)

// Discord snowflake IDs count milliseconds from this instant
const snowflakeEpochMillis = 1420070400000

// Returns the creation time encoded in a snowflake ID. For a user ID, this is when the account was created.
func SnowflakeTime(id string) (time.Time, error) {
	v, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid snowflake %q: %w", id, err)
	}
	ms := int64(v>>22) + snowflakeEpochMillis
	return time.UnixMilli(ms).UTC(), nil
}
