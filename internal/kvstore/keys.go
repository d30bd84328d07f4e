// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package kvstore

import (
	"encoding/binary"
	"strings"

	"github.com/google/uuid"

	"stockroom/internal/models"
)

// Key layout. Integers are big-endian so prefix scans come back in id order.
//
//	cat/<id>                 category record (JSON)
//	catname/<lower name>     id of the category holding that name
//	catchild/<parent>/<id>   parent index; roots use parent 0
//	item/<id>                component record (JSON)
//	itemcat/<cat>/<id>       component index by category
//	user/<uuid>              user record (JSON)
//	useremail/<lower email>  uuid of the user with that email
const (
	prefixCategory  = "cat/"
	prefixName      = "catname/"
	prefixChild     = "catchild/"
	prefixComponent = "item/"
	prefixItemCat   = "itemcat/"
	prefixUser      = "user/"
	prefixUserEmail = "useremail/"

	seqCategoryKey  = "seq/category"
	seqComponentKey = "seq/component"
)

func appendID(b []byte, id int64) []byte {
	return binary.BigEndian.AppendUint64(b, uint64(id))
}

func readID(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b))
}

func categoryKey(id int64) []byte {
	return appendID([]byte(prefixCategory), id)
}

func nameKey(name string) []byte {
	return append([]byte(prefixName), models.NameKey(name)...)
}

func parentOrZero(parentID *int64) int64 {
	if parentID == nil {
		return 0
	}
	return *parentID
}

func childPrefix(parentID *int64) []byte {
	return appendID([]byte(prefixChild), parentOrZero(parentID))
}

func childKey(parentID *int64, id int64) []byte {
	return appendID(childPrefix(parentID), id)
}

func componentKey(id int64) []byte {
	return appendID([]byte(prefixComponent), id)
}

func itemCatPrefix(categoryID int64) []byte {
	return appendID([]byte(prefixItemCat), categoryID)
}

func itemCatKey(categoryID, id int64) []byte {
	return appendID(itemCatPrefix(categoryID), id)
}

// lastID reads the trailing id of an index key.
func lastID(key []byte) int64 {
	return readID(key[len(key)-8:])
}

func userKey(id uuid.UUID) []byte {
	return append([]byte(prefixUser), id[:]...)
}

func userEmailKey(email string) []byte {
	return append([]byte(prefixUserEmail), strings.ToLower(strings.TrimSpace(email))...)
}
