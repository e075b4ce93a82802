package handlers

import (
	"regexp"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// productListQuery holds the parsed storefront listing filters.
type productListQuery struct {
	CategoryID   *primitive.ObjectID
	CollectionID *primitive.ObjectID
	ColorID      *primitive.ObjectID
	SkillLevelID *primitive.ObjectID
	Search       string
	Tags         []string
	MinPrice     *float64
	MaxPrice     *float64
	Sort         string
}

func escapeRegex(raw string) string {
	return regexp.QuoteMeta(raw)
}

// parseProductListQuery reads the supported query params. Malformed object ids
// come back as a field-name error so the caller can 400 with context.
func parseProductListQuery(get func(string) string) (productListQuery, string) {
	var q productListQuery

	for _, ref := range []struct {
		param  string
		target **primitive.ObjectID
	}{
		{"categoryId", &q.CategoryID},
		{"collectionId", &q.CollectionID},
		{"colorId", &q.ColorID},
		{"skillLevelId", &q.SkillLevelID},
	} {
		raw := strings.TrimSpace(get(ref.param))
		if raw == "" {
			continue
		}
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return q, ref.param + " is malformed"
		}
		*ref.target = &id
	}

	q.Search = strings.TrimSpace(get("search"))

	if raw := strings.TrimSpace(get("tags")); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				q.Tags = append(q.Tags, tag)
			}
		}
	}

	for _, bound := range []struct {
		param  string
		target **float64
	}{
		{"minPrice", &q.MinPrice},
		{"maxPrice", &q.MaxPrice},
	} {
		raw := strings.TrimSpace(get(bound.param))
		if raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value < 0 {
			return q, bound.param + " must be a non-negative number"
		}
		*bound.target = &value
	}

	switch sort := strings.TrimSpace(get("sort")); sort {
	case "", "newest":
		q.Sort = "newest"
	case "price_asc", "price_desc", "name":
		q.Sort = sort
	default:
		return q, "sort must be one of newest, price_asc, price_desc, name"
	}

	return q, ""
}

// buildProductFilter translates the parsed query into the Mongo filter for the
// public catalog: active, not soft-deleted, and matching every given facet.
func buildProductFilter(q productListQuery) bson.M {
	filter := bson.M{
		"isActive":  true,
		"isDeleted": bson.M{"$ne": true},
	}

	if q.CategoryID != nil {
		filter["categoryId"] = *q.CategoryID
	}
	if q.CollectionID != nil {
		filter["collectionId"] = *q.CollectionID
	}
	if q.SkillLevelID != nil {
		filter["skillLevelId"] = *q.SkillLevelID
	}
	if q.ColorID != nil {
		filter["$or"] = []bson.M{
			{"variants.colorId": *q.ColorID},
			{"variants.secondaryColorId": *q.ColorID},
		}
	}
	if q.Search != "" {
		filter["name"] = bson.M{"$regex": escapeRegex(q.Search), "$options": "i"}
	}
	if len(q.Tags) > 0 {
		filter["tags"] = bson.M{"$all": q.Tags}
	}

	price := bson.M{}
	if q.MinPrice != nil {
		price["$gte"] = *q.MinPrice
	}
	if q.MaxPrice != nil {
		price["$lte"] = *q.MaxPrice
	}
	if len(price) > 0 {
		filter["price"] = price
	}

	return filter
}

// buildProductSort maps the sort key to a Mongo sort document. Price sorting
// uses the base price; the persisted discountPrice is not indexed.
func buildProductSort(sort string) bson.D {
	switch sort {
	case "price_asc":
		return bson.D{{Key: "price", Value: 1}}
	case "price_desc":
		return bson.D{{Key: "price", Value: -1}}
	case "name":
		return bson.D{{Key: "name", Value: 1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}}
	}
}
