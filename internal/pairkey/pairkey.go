// pairkey.go
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

// Package pairkey derives the fixed width lookup keys used by the relation
// and membership tables.
//
// Every key is SHA256(domain + 0x00 + data). Pair keys order the two
// identities before hashing, so both call orders land on the same row.
package pairkey

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/localnerve/relationsdb/internal/models"
)

// Domain prefixes. The version suffix leaves room for a later algorithm change.
const (
	DomainPair     = "relationsdb/pair/v1"
	DomainMember   = "relationsdb/member/v1"
	DomainIdentity = "relationsdb/identity/v1"
)

func hashWithDomain(domain string, parts ...[]byte) models.Key {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	for _, p := range parts {
		h.Write(p)
	}
	var k models.Key
	copy(k[:], h.Sum(nil))
	return k
}

// Order returns the two identities lowest first, by raw byte order.
func Order(a, b models.Identity) (lo, hi models.Identity) {
	if a.Compare(b) <= 0 {
		return a, b
	}
	return b, a
}

// Of returns the canonical key of the unordered pair {a, b}.
func Of(a, b models.Identity) models.Key {
	lo, hi := Order(a, b)
	return hashWithDomain(DomainPair, lo[:], hi[:])
}

// Membership returns the key of the (user, channel) member row.
func Membership(user models.Identity, channelID int64) models.Key {
	var id [8]byte
	binary.BigEndian.PutUint64(id[:], uint64(channelID))
	return hashWithDomain(DomainMember, user[:], id[:])
}

// Subject maps an external account id (the authorizer user id) to an identity.
func Subject(subject string) models.Identity {
	return models.Identity(hashWithDomain(DomainIdentity, []byte(subject)))
}
