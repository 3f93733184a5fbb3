// identity.go
//
// A consistency layer for social relations and guild permissions
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of relationsdb.
// relationsdb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// relationsdb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with relationsdb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// KeySize is the width in bytes of identities and derived keys.
const KeySize = 32

// Identity is the opaque key naming a caller. It is supplied by the host and
// never generated by the stores.
type Identity [KeySize]byte

// Key is a fixed width lookup key derived from identities (pair and member keys).
type Key [KeySize]byte

// ParseIdentity decodes the 64 character hex form of an identity.
func ParseIdentity(s string) (Identity, error) {
	var id Identity
	err := decodeHex(id[:], s)
	return id, err
}

// ParseKey decodes the 64 character hex form of a key.
func ParseKey(s string) (Key, error) {
	var k Key
	err := decodeHex(k[:], s)
	return k, err
}

func (id Identity) String() string { return hex.EncodeToString(id[:]) }
func (k Key) String() string       { return hex.EncodeToString(k[:]) }

// IsZero reports whether the identity is unset.
func (id Identity) IsZero() bool { return id == Identity{} }

// Compare orders identities by their raw bytes.
func (id Identity) Compare(other Identity) int {
	return bytes.Compare(id[:], other[:])
}

// Value stores the identity as lowercase hex.
func (id Identity) Value() (driver.Value, error) { return id.String(), nil }

// Scan reads the hex form written by Value.
func (id *Identity) Scan(value interface{}) error { return scanHex(id[:], value) }

func (k Key) Value() (driver.Value, error)  { return k.String(), nil }
func (k *Key) Scan(value interface{}) error { return scanHex(k[:], value) }

func (Identity) GormDataType() string { return "string" }
func (Key) GormDataType() string      { return "string" }

// GormDBDataType keeps identities in a fixed width column on every dialect.
func (Identity) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	return hexColumnType(db)
}

// GormDBDataType keeps keys in a fixed width column on every dialect.
func (Key) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	return hexColumnType(db)
}

func (id Identity) MarshalJSON() ([]byte, error) { return json.Marshal(id.String()) }

func (id *Identity) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return decodeHex(id[:], s)
}

func (k Key) MarshalJSON() ([]byte, error) { return json.Marshal(k.String()) }

func hexColumnType(db *gorm.DB) string {
	switch db.Dialector.Name() {
	case "sqlite":
		return "TEXT"
	case "sqlserver", "mssql":
		return "VARCHAR(64)"
	}
	return "CHAR(64)"
}

func decodeHex(dst []byte, s string) error {
	if len(s) != hex.EncodedLen(len(dst)) {
		return fmt.Errorf("invalid key length %d", len(s))
	}
	if _, err := hex.Decode(dst, []byte(s)); err != nil {
		return fmt.Errorf("invalid key: %w", err)
	}
	return nil
}

func scanHex(dst []byte, value interface{}) error {
	switch v := value.(type) {
	case string:
		return decodeHex(dst, v)
	case []byte:
		return decodeHex(dst, string(v))
	case nil:
		return fmt.Errorf("cannot scan NULL into key")
	}
	return fmt.Errorf("cannot scan %T into key", value)
}
