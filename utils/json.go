package utils

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// EncodeJSONList marshals a string list into a gorm JSON column value.
func EncodeJSONList(items []string) (datatypes.JSON, error) {
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
