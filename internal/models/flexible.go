package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FlexibleString allows JSON fields to be provided as string or number
type FlexibleString string

func (fs *FlexibleString) UnmarshalJSON(data []byte) error {
	if fs == nil {
		return fmt.Errorf("FlexibleString: nil receiver")
	}
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		*fs = FlexibleString(strings.TrimSpace(s))
		return nil
	}

	var num json.Number
	if err := json.Unmarshal(trimmed, &num); err == nil {
		*fs = FlexibleString(num.String())
		return nil
	}

	return fmt.Errorf("FlexibleString: expected string or number, got %s", string(data))
}

func (fs FlexibleString) String() string {
	return string(fs)
}

// FlexibleInt accepts 8, 8.0 or "8". Non-integral values are rejected.
type FlexibleInt int64

func (fi *FlexibleInt) UnmarshalJSON(data []byte) error {
	var fs FlexibleString
	if err := fs.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("FlexibleInt: %w", err)
	}
	if fs == "" {
		return nil
	}
	f, err := strconv.ParseFloat(fs.String(), 64)
	if err != nil || math.Trunc(f) != f {
		return fmt.Errorf("FlexibleInt: expected integer, got %s", string(data))
	}
	*fi = FlexibleInt(f)
	return nil
}
