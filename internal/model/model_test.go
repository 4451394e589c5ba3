package model

import "testing"

func TestCategory_IsValid(t *testing.T) {
	for _, tc := range []struct {
		cat  Category
		want bool
	}{
		{CategoryEquipment, true},
		{CategoryFurniture, true},
		{CategoryBook, true},
		{CategoryDocument, true},
		{CategoryOther, true},
		{Category(""), false},
		{Category("Book"), false},
	} {
		if got := tc.cat.IsValid(); got != tc.want {
			t.Errorf("Category(%q).IsValid() = %v, want %v", tc.cat, got, tc.want)
		}
	}
}

func TestFieldKind_IsValid(t *testing.T) {
	for _, tc := range []struct {
		kind FieldKind
		want bool
	}{
		{FieldKindString, true},
		{FieldKindText, true},
		{FieldKindNumber, true},
		{FieldKindBool, true},
		{FieldKindLink, true},
		{FieldKind("date"), false},
		{FieldKind(""), false},
	} {
		if got := tc.kind.IsValid(); got != tc.want {
			t.Errorf("FieldKind(%q).IsValid() = %v, want %v", tc.kind, got, tc.want)
		}
	}
}

func TestAccessLevel_Allows(t *testing.T) {
	for _, tc := range []struct {
		have, need AccessLevel
		want       bool
	}{
		{AccessOwner, AccessWrite, true},
		{AccessOwner, AccessOwner, true},
		{AccessWrite, AccessRead, true},
		{AccessWrite, AccessOwner, false},
		{AccessRead, AccessWrite, false},
		{AccessLevel("admin"), AccessRead, false},
		{AccessLevel(""), AccessLevel(""), false},
	} {
		if got := tc.have.Allows(tc.need); got != tc.want {
			t.Errorf("%q.Allows(%q) = %v, want %v", tc.have, tc.need, got, tc.want)
		}
	}
}

func TestAccessLevel_IsValid(t *testing.T) {
	if !AccessRead.IsValid() || !AccessWrite.IsValid() || !AccessOwner.IsValid() {
		t.Error("known access levels should be valid")
	}
	if AccessLevel("superuser").IsValid() {
		t.Error(`AccessLevel("superuser").IsValid() = true, want false`)
	}
}
