package model

import (
	"fmt"
	"math"
	"net/url"
	"sort"
)

// Slot reads and writes one typed custom-field column of an Item.
type Slot struct {
	Name string
	Kind FieldKind
	Get  func(*Item) any
	Set  func(*Item, any) error
}

// FieldSlots maps slot names to their accessors. The table is fixed; an
// inventory's FieldDefs pick which slots carry meaning.
var FieldSlots = map[string]Slot{
	"string1": stringSlot("string1", FieldKindString, func(it *Item) *string { return &it.String1 }),
	"string2": stringSlot("string2", FieldKindString, func(it *Item) *string { return &it.String2 }),
	"string3": stringSlot("string3", FieldKindString, func(it *Item) *string { return &it.String3 }),
	"text1":   stringSlot("text1", FieldKindText, func(it *Item) *string { return &it.Text1 }),
	"text2":   stringSlot("text2", FieldKindText, func(it *Item) *string { return &it.Text2 }),
	"text3":   stringSlot("text3", FieldKindText, func(it *Item) *string { return &it.Text3 }),
	"link1":   stringSlot("link1", FieldKindLink, func(it *Item) *string { return &it.Link1 }),
	"link2":   stringSlot("link2", FieldKindLink, func(it *Item) *string { return &it.Link2 }),
	"link3":   stringSlot("link3", FieldKindLink, func(it *Item) *string { return &it.Link3 }),
	"number1": numberSlot("number1", func(it *Item) **float64 { return &it.Number1 }),
	"number2": numberSlot("number2", func(it *Item) **float64 { return &it.Number2 }),
	"number3": numberSlot("number3", func(it *Item) **float64 { return &it.Number3 }),
	"bool1":   boolSlot("bool1", func(it *Item) *bool { return &it.Bool1 }),
	"bool2":   boolSlot("bool2", func(it *Item) *bool { return &it.Bool2 }),
	"bool3":   boolSlot("bool3", func(it *Item) *bool { return &it.Bool3 }),
}

// SlotNames returns every slot name in sorted order.
func SlotNames() []string {
	names := make([]string, 0, len(FieldSlots))
	for name := range FieldSlots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func stringSlot(name string, kind FieldKind, field func(*Item) *string) Slot {
	return Slot{
		Name: name,
		Kind: kind,
		Get:  func(it *Item) any { return *field(it) },
		Set: func(it *Item, v any) error {
			if v == nil {
				*field(it) = ""
				return nil
			}
			s, ok := v.(string)
			if !ok {
				return fmt.Errorf("must be a string")
			}
			if kind == FieldKindLink && s != "" {
				if err := checkLink(s); err != nil {
					return err
				}
			}
			*field(it) = s
			return nil
		},
	}
}

func numberSlot(name string, field func(*Item) **float64) Slot {
	return Slot{
		Name: name,
		Kind: FieldKindNumber,
		Get: func(it *Item) any {
			if p := *field(it); p != nil {
				return *p
			}
			return nil
		},
		Set: func(it *Item, v any) error {
			if v == nil {
				*field(it) = nil
				return nil
			}
			var n float64
			switch x := v.(type) {
			case float64:
				n = x
			case int:
				n = float64(x)
			case int64:
				n = float64(x)
			default:
				return fmt.Errorf("must be a number")
			}
			if math.IsNaN(n) || math.IsInf(n, 0) {
				return fmt.Errorf("must be a finite number")
			}
			*field(it) = &n
			return nil
		},
	}
}

func boolSlot(name string, field func(*Item) *bool) Slot {
	return Slot{
		Name: name,
		Kind: FieldKindBool,
		Get:  func(it *Item) any { return *field(it) },
		Set: func(it *Item, v any) error {
			if v == nil {
				*field(it) = false
				return nil
			}
			b, ok := v.(bool)
			if !ok {
				return fmt.Errorf("must be a boolean")
			}
			*field(it) = b
			return nil
		},
	}
}

func checkLink(s string) error {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("must be an http or https URL")
	}
	return nil
}
