package handlers

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func queryFrom(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestParseProductListQueryDefaults(t *testing.T) {
	q, problem := parseProductListQuery(queryFrom(nil))
	if problem != "" {
		t.Fatalf("unexpected problem: %s", problem)
	}
	if q.Sort != "newest" {
		t.Fatalf("expected default sort newest, got %q", q.Sort)
	}
	if q.CategoryID != nil || q.Search != "" || len(q.Tags) != 0 {
		t.Fatalf("expected empty query, got %+v", q)
	}
}

func TestParseProductListQueryRejectsBadValues(t *testing.T) {
	if _, problem := parseProductListQuery(queryFrom(map[string]string{"categoryId": "nope"})); problem == "" {
		t.Fatal("expected malformed categoryId to be rejected")
	}
	if _, problem := parseProductListQuery(queryFrom(map[string]string{"minPrice": "-5"})); problem == "" {
		t.Fatal("expected negative minPrice to be rejected")
	}
	if _, problem := parseProductListQuery(queryFrom(map[string]string{"sort": "cheapest"})); problem == "" {
		t.Fatal("expected unknown sort to be rejected")
	}
}

func TestParseProductListQueryTagsAndPrices(t *testing.T) {
	q, problem := parseProductListQuery(queryFrom(map[string]string{
		"tags":     " castle, space ,,knights ",
		"minPrice": "9.99",
		"maxPrice": "50",
		"sort":     "price_asc",
	}))
	if problem != "" {
		t.Fatalf("unexpected problem: %s", problem)
	}
	if len(q.Tags) != 3 || q.Tags[0] != "castle" || q.Tags[2] != "knights" {
		t.Fatalf("unexpected tags: %v", q.Tags)
	}
	if q.MinPrice == nil || *q.MinPrice != 9.99 || q.MaxPrice == nil || *q.MaxPrice != 50 {
		t.Fatalf("unexpected price bounds: %+v", q)
	}
	if q.Sort != "price_asc" {
		t.Fatalf("unexpected sort: %q", q.Sort)
	}
}

func TestBuildProductFilterAlwaysScopesToLiveProducts(t *testing.T) {
	filter := buildProductFilter(productListQuery{})
	if filter["isActive"] != true {
		t.Fatal("filter must require isActive")
	}
	deleted, ok := filter["isDeleted"].(bson.M)
	if !ok || deleted["$ne"] != true {
		t.Fatal("filter must exclude soft-deleted products")
	}
}

func TestBuildProductFilterColorMatchesBothSlots(t *testing.T) {
	colorID := primitive.NewObjectID()
	filter := buildProductFilter(productListQuery{ColorID: &colorID})

	clauses, ok := filter["$or"].([]bson.M)
	if !ok || len(clauses) != 2 {
		t.Fatalf("expected two color clauses, got %v", filter["$or"])
	}
	if clauses[0]["variants.colorId"] != colorID || clauses[1]["variants.secondaryColorId"] != colorID {
		t.Fatalf("unexpected color clauses: %v", clauses)
	}
}

func TestBuildProductFilterSearchIsEscaped(t *testing.T) {
	filter := buildProductFilter(productListQuery{Search: "x-wing (new)"})
	name, ok := filter["name"].(bson.M)
	if !ok {
		t.Fatal("expected name regex clause")
	}
	pattern := name["$regex"].(string)
	if pattern == "x-wing (new)" {
		t.Fatal("regex metacharacters must be escaped")
	}
}

func TestBuildProductFilterPriceBounds(t *testing.T) {
	low, high := 10.0, 30.0
	filter := buildProductFilter(productListQuery{MinPrice: &low, MaxPrice: &high})
	price, ok := filter["price"].(bson.M)
	if !ok || price["$gte"] != 10.0 || price["$lte"] != 30.0 {
		t.Fatalf("unexpected price clause: %v", filter["price"])
	}
}

func TestBuildProductSort(t *testing.T) {
	if sort := buildProductSort("price_desc"); sort[0].Key != "price" || sort[0].Value != -1 {
		t.Fatalf("unexpected sort: %v", sort)
	}
	if sort := buildProductSort("newest"); sort[0].Key != "createdAt" || sort[0].Value != -1 {
		t.Fatalf("unexpected default sort: %v", sort)
	}
}
