package handlers

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	errCartEmpty        = errors.New("cart is empty")
	errNotProductOrder  = errors.New("session is not a product order")
	errSessionUnpaid    = errors.New("session is not paid")
	errNoOrderableItems = errors.New("no orderable items in cart")
)

type maxStockError struct {
	ProductID primitive.ObjectID
	Available int
	Requested int
}

func (e maxStockError) Error() string {
	return fmt.Sprintf("max stock reached: %d available, %d requested", e.Available, e.Requested)
}

type productNotFoundError struct {
	ProductID primitive.ObjectID
}

func (e productNotFoundError) Error() string {
	return "product not found"
}
