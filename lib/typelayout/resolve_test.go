// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

package typelayout

import (
	"context"
	"strings"
	"testing"

	"github.com/meridian-index/meridian/lib/addr"
	"github.com/meridian-index/meridian/lib/bytecode"
	"github.com/meridian-index/meridian/lib/objects"
	"github.com/meridian-index/meridian/lib/packages"
	"github.com/meridian-index/meridian/lib/testutil"
)

// Fixture addresses. Package A is published at marketV1, upgraded at
// marketV2 (same runtime id, marketV1). Package B links against the
// upgrade.
var (
	marketV1 = addr.MustParse("0xa1")
	marketV2 = addr.MustParse("0xa2")
	shopID   = addr.MustParse("0xb1")
)

func prim(kind bytecode.TypeKind) bytecode.Type {
	return bytecode.Type{Kind: kind}
}

func vec(elem bytecode.Type) bytecode.Type {
	return bytecode.Type{Kind: bytecode.KindVector, Elem: &elem}
}

func ref(address addr.Address, module, name string, params ...bytecode.Type) bytecode.Type {
	return bytecode.Type{Kind: bytecode.KindStruct, Struct: &bytecode.StructRef{
		Address:    address,
		Module:     module,
		Name:       name,
		TypeParams: params,
	}}
}

func generic(index uint32) bytecode.Type {
	return bytecode.Type{Kind: bytecode.KindTypeParam, ParamIndex: index}
}

func buildPackage(t *testing.T, storageID addr.Address, version uint64, modules []*bytecode.Module, origins []objects.TypeOrigin, linkage []objects.LinkageEntry) *packages.Package {
	t.Helper()
	object := testutil.PackageObject(t, testutil.PackageSpec{
		StorageID:   storageID,
		Version:     version,
		Modules:     modules,
		TypeOrigins: origins,
		Linkage:     linkage,
	})
	pkg, err := packages.Materialize(storageID, version, object, packages.MaterializeOptions{})
	if err != nil {
		t.Fatalf("materializing %s: %v", storageID.Short(), err)
	}
	return pkg
}

// mapSource serves pre-materialized packages and counts fetches.
type mapSource struct {
	packages map[addr.Address]*packages.Package
	fetches  int
}

func (s *mapSource) Package(ctx context.Context, id addr.Address) (*packages.Package, error) {
	s.fetches++
	pkg, ok := s.packages[id]
	if !ok {
		return nil, &packages.NotFoundError{ID: id}
	}
	return pkg, nil
}

func fixtureSource(t *testing.T) *mapSource {
	t.Helper()

	marketStructs := []bytecode.Struct{
		{
			Name: "Listing",
			Fields: []bytecode.Field{
				{Name: "price", Type: prim(bytecode.KindU64)},
				{Name: "tags", Type: vec(prim(bytecode.KindU8))},
			},
		},
		{
			Name:       "Pool",
			TypeParams: 1,
			Fields: []bytecode.Field{
				{Name: "items", Type: vec(generic(0))},
				{Name: "owner", Type: prim(bytecode.KindAddress)},
			},
		},
	}

	v1 := buildPackage(t, marketV1, 1,
		[]*bytecode.Module{{SelfAddress: marketV1, Name: "market", Structs: marketStructs}},
		[]objects.TypeOrigin{
			{Module: "market", Struct: "Listing", Package: marketV1},
			{Module: "market", Struct: "Pool", Package: marketV1},
		},
		nil)

	// The upgrade keeps the v1 declarations and adds Discount. Its
	// bytecode still carries the original self address.
	v2Structs := append([]bytecode.Struct{}, marketStructs...)
	v2Structs = append(v2Structs, bytecode.Struct{
		Name: "Discount",
		Fields: []bytecode.Field{
			{Name: "percent", Type: prim(bytecode.KindU8)},
		},
	})
	v2 := buildPackage(t, marketV2, 2,
		[]*bytecode.Module{{SelfAddress: marketV1, Name: "market", Structs: v2Structs}},
		[]objects.TypeOrigin{
			{Module: "market", Struct: "Listing", Package: marketV1},
			{Module: "market", Struct: "Pool", Package: marketV1},
			{Module: "market", Struct: "Discount", Package: marketV2},
		},
		nil)

	// Package B references market by runtime id; its linkage table
	// pins the upgraded storage id.
	shop := buildPackage(t, shopID, 1,
		[]*bytecode.Module{{SelfAddress: shopID, Name: "shop", Structs: []bytecode.Struct{
			{
				Name: "Cart",
				Fields: []bytecode.Field{
					{Name: "listing", Type: ref(marketV1, "market", "Listing")},
					{Name: "count", Type: prim(bytecode.KindU64)},
				},
			},
			{
				Name:       "Bundle",
				TypeParams: 1,
				Fields: []bytecode.Field{
					{Name: "inner", Type: ref(marketV1, "market", "Pool", generic(0))},
				},
			},
		}}},
		[]objects.TypeOrigin{
			{Module: "shop", Struct: "Cart", Package: shopID},
			{Module: "shop", Struct: "Bundle", Package: shopID},
		},
		[]objects.LinkageEntry{
			{Dependency: marketV1, UpgradedID: marketV2, UpgradedVersion: 2},
		})

	return &mapSource{packages: map[addr.Address]*packages.Package{
		marketV1: v1,
		marketV2: v2,
		shopID:   shop,
	}}
}

func resolve(t *testing.T, source PackageSource, text string) Layout {
	t.Helper()
	layout, err := Resolver{Source: source}.TypeLayout(context.Background(), MustParseTag(text))
	if err != nil {
		t.Fatalf("TypeLayout(%q): %v", text, err)
	}
	return layout
}

func TestTypeLayoutPrimitives(t *testing.T) {
	// Primitive and vector tags resolve without touching any store.
	source := &mapSource{}
	for _, text := range []string{"bool", "u8", "u256", "address", "vector<vector<u64>>"} {
		layout := resolve(t, source, text)
		if got := layout.Tag().String(); got != text {
			t.Errorf("layout tag %q, want %q", got, text)
		}
	}
	if source.fetches != 0 {
		t.Fatalf("resolved primitives with %d package fetches", source.fetches)
	}
}

func TestTypeLayoutStruct(t *testing.T) {
	layout := resolve(t, fixtureSource(t), "0xa1::market::Listing")

	structLayout, ok := layout.(StructLayout)
	if !ok {
		t.Fatalf("layout is %T, want StructLayout", layout)
	}
	if structLayout.Type.Address != marketV1 {
		t.Errorf("layout address %s, want %s", structLayout.Type.Address.Short(), marketV1.Short())
	}
	if len(structLayout.Fields) != 2 {
		t.Fatalf("got %d fields, want 2", len(structLayout.Fields))
	}
	if structLayout.Fields[0].Name != "price" || structLayout.Fields[0].Layout.Tag().String() != "u64" {
		t.Errorf("field 0 = %s: %s", structLayout.Fields[0].Name, structLayout.Fields[0].Layout.Tag())
	}
	if structLayout.Fields[1].Name != "tags" || structLayout.Fields[1].Layout.Tag().String() != "vector<u8>" {
		t.Errorf("field 1 = %s: %s", structLayout.Fields[1].Name, structLayout.Fields[1].Layout.Tag())
	}
}

func TestTypeLayoutGeneric(t *testing.T) {
	layout := resolve(t, fixtureSource(t), "0xa1::market::Pool<u16>")

	structLayout := layout.(StructLayout)
	if got := structLayout.Tag().String(); got != "0xa1::market::Pool<u16>" {
		t.Errorf("canonical tag %q", got)
	}
	if got := structLayout.Fields[0].Layout.Tag().String(); got != "vector<u16>" {
		t.Errorf("items field resolved to %q, want vector<u16>", got)
	}
	if got := structLayout.Fields[1].Layout.Tag().String(); got != "address" {
		t.Errorf("owner field resolved to %q, want address", got)
	}
}

func TestTypeLayoutCrossPackage(t *testing.T) {
	// Cart's listing field references market by runtime id. The
	// linkage table relocates it to the v2 storage id, and the type
	// origin there pins Listing's defining id back to v1.
	layout := resolve(t, fixtureSource(t), "0xb1::shop::Cart")

	cart := layout.(StructLayout)
	listing, ok := cart.Fields[0].Layout.(StructLayout)
	if !ok {
		t.Fatalf("listing field is %T, want StructLayout", cart.Fields[0].Layout)
	}
	if listing.Type.Address != marketV1 {
		t.Errorf("listing defining id %s, want %s", listing.Type.Address.Short(), marketV1.Short())
	}
	if len(listing.Fields) != 2 {
		t.Fatalf("listing has %d fields, want 2", len(listing.Fields))
	}
}

func TestTypeLayoutGenericAcrossPackages(t *testing.T) {
	layout := resolve(t, fixtureSource(t), "0xb1::shop::Bundle<vector<u8>>")

	bundle := layout.(StructLayout)
	inner := bundle.Fields[0].Layout.(StructLayout)
	if got := inner.Tag().String(); got != "0xa1::market::Pool<vector<u8>>" {
		t.Errorf("inner tag %q", got)
	}
	if got := inner.Fields[0].Layout.Tag().String(); got != "vector<vector<u8>>" {
		t.Errorf("items field resolved to %q", got)
	}
}

func TestTypeLayoutUpgradeDefiningID(t *testing.T) {
	source := fixtureSource(t)

	// A struct carried over from v1, referenced through the v2
	// storage id, keeps its original defining id.
	listing := resolve(t, source, "0xa2::market::Listing").(StructLayout)
	if listing.Type.Address != marketV1 {
		t.Errorf("Listing defining id %s, want %s", listing.Type.Address.Short(), marketV1.Short())
	}

	// A struct introduced by the upgrade is defined there.
	discount := resolve(t, source, "0xa2::market::Discount").(StructLayout)
	if discount.Type.Address != marketV2 {
		t.Errorf("Discount defining id %s, want %s", discount.Type.Address.Short(), marketV2.Short())
	}
}

func TestTypeLayoutLeavesCallerTagIntact(t *testing.T) {
	source := fixtureSource(t)

	// Resolution rewrites struct addresses to defining ids on its
	// own copy: the tag the caller passed in keeps the storage id it
	// was written with.
	tag := MustParseTag("vector<0xa2::market::Listing>")
	layout, err := Resolver{Source: source}.TypeLayout(context.Background(), tag)
	if err != nil {
		t.Fatalf("TypeLayout: %v", err)
	}
	resolved := layout.(VectorLayout).Elem.(StructLayout)
	if resolved.Type.Address != marketV1 {
		t.Errorf("resolved defining id %s, want %s", resolved.Type.Address.Short(), marketV1.Short())
	}
	if tag.Elem.Struct.Address != marketV2 {
		t.Errorf("caller tag address %s after resolution, want %s", tag.Elem.Struct.Address.Short(), marketV2.Short())
	}
}

func TestTypeLayoutRender(t *testing.T) {
	layout := resolve(t, fixtureSource(t), "0xb1::shop::Cart")

	want := strings.Join([]string{
		"0xb1::shop::Cart {",
		"  listing: 0xa1::market::Listing {",
		"    price: u64",
		"    tags: vector of u8",
		"  }",
		"  count: u64",
		"}",
	}, "\n")
	if got := Render(layout); got != want {
		t.Fatalf("rendered layout:\n%s\nwant:\n%s", got, want)
	}
}

func TestTypeLayoutErrors(t *testing.T) {
	source := fixtureSource(t)
	resolver := Resolver{Source: source}

	cases := []struct {
		name  string
		text  string
		check func(error) bool
	}{
		{"missing package", "0xdead::market::Listing", packages.IsNotFound},
		{"missing module", "0xa1::bazaar::Listing", packages.IsUnresolvedType},
		{"missing struct", "0xa1::market::Auction", packages.IsUnresolvedType},
		{"too few type arguments", "0xa1::market::Pool", packages.IsUnresolvedType},
		{"too many type arguments", "0xa1::market::Listing<u8>", packages.IsUnresolvedType},
	}
	for _, tc := range cases {
		_, err := resolver.TypeLayout(context.Background(), MustParseTag(tc.text))
		if err == nil {
			t.Errorf("%s: TypeLayout(%q) unexpectedly succeeded", tc.name, tc.text)
			continue
		}
		if !tc.check(err) {
			t.Errorf("%s: wrong error class: %v", tc.name, err)
		}
	}
}

func TestTypeLayoutRejectsGenericParameter(t *testing.T) {
	tag := Tag{Kind: bytecode.KindTypeParam}
	_, err := Resolver{Source: &mapSource{}}.TypeLayout(context.Background(), tag)
	if !packages.IsUnresolvedType(err) {
		t.Fatalf("got %v, want UnresolvedTypeError", err)
	}
}

func TestTypeLayoutDepthLimit(t *testing.T) {
	tag := Tag{Kind: bytecode.KindU8}
	for range 200 {
		elem := tag
		tag = Tag{Kind: bytecode.KindVector, Elem: &elem}
	}
	_, err := Resolver{Source: &mapSource{}}.TypeLayout(context.Background(), tag)
	if !packages.IsUnresolvedType(err) {
		t.Fatalf("got %v, want UnresolvedTypeError", err)
	}
}

func TestGatherFetchesEachPackageOnce(t *testing.T) {
	source := fixtureSource(t)
	resolution := NewContext()

	tag := MustParseTag("0xb1::shop::Cart")
	if err := resolution.AddTag(context.Background(), &tag, source); err != nil {
		t.Fatalf("AddTag: %v", err)
	}
	// shop, the relocated market v2, and the defining market v1.
	if source.fetches != 3 {
		t.Fatalf("gather made %d fetches, want 3", source.fetches)
	}

	// The gather phase rewrites the tag to its defining id.
	if tag.Struct.Address != shopID {
		t.Fatalf("gathered tag address %s, want %s", tag.Struct.Address.Short(), shopID.Short())
	}

	// A second gather of the same tag is served from the working
	// set.
	again := MustParseTag("0xb1::shop::Cart")
	if err := resolution.AddTag(context.Background(), &again, source); err != nil {
		t.Fatalf("AddTag: %v", err)
	}
	if source.fetches != 3 {
		t.Fatalf("repeat gather made %d fetches, want 3", source.fetches)
	}

	// Resolve is pure over the working set.
	if _, err := resolution.Resolve(tag); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if source.fetches != 3 {
		t.Fatalf("resolve made %d extra fetches", source.fetches-3)
	}
}

func TestResolveSeededWithoutSource(t *testing.T) {
	source := fixtureSource(t)
	resolution := NewContext()
	resolution.Seed(source.packages[marketV1])

	layout, err := resolution.Resolve(MustParseTag("0xa1::market::Listing"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := layout.Tag().String(); got != "0xa1::market::Listing" {
		t.Fatalf("layout tag %q", got)
	}

	// A package outside the seeded working set is an error, not a
	// fetch.
	_, err = resolution.Resolve(MustParseTag("0xb1::shop::Cart"))
	if !packages.IsUnresolvedType(err) {
		t.Fatalf("got %v, want UnresolvedTypeError", err)
	}
}
