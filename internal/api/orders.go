package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"brigade/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

// orderRequest is the payload the order capture collaborator posts to
// make an order routable.
type orderRequest struct {
	Items      []orderItemRequest `json:"items"`
	Rush       bool               `json:"rush"`
	VIP        bool               `json:"vip"`
	ReceivedAt *time.Time         `json:"received_at"`
}

type orderItemRequest struct {
	Name              string   `json:"name"`
	Quantity          int      `json:"quantity"`
	Difficulty        int      `json:"difficulty"`
	RequiredEquipment []string `json:"required_equipment"`
	Notes             string   `json:"notes"`
}

func (r *orderRequest) validate() error {
	if len(r.Items) == 0 {
		return errors.New("order needs at least one item")
	}
	for i, item := range r.Items {
		if item.Name == "" {
			return fmt.Errorf("item %d: name is required", i)
		}
		if item.Difficulty < 0 || item.Difficulty > 3 {
			return fmt.Errorf("item %d: difficulty must be between 1 and 3", i)
		}
	}
	return nil
}

func (s *Server) CreateOrder(c *gin.Context) {
	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order := models.Order{
		Status:       string(models.OrderStatusReceived),
		Rush:         req.Rush,
		VIP:          req.VIP,
		TimeReceived: time.Now(),
	}
	if req.ReceivedAt != nil {
		order.TimeReceived = *req.ReceivedAt
	}
	for _, item := range req.Items {
		quantity := item.Quantity
		if quantity < 1 {
			quantity = 1
		}
		order.Items = append(order.Items, models.OrderItem{
			Name:              item.Name,
			Quantity:          quantity,
			Difficulty:        item.Difficulty,
			RequiredEquipment: models.StringSlice(item.RequiredEquipment),
			Notes:             item.Notes,
		})
	}

	if err := s.db.Create(&order).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": order.ID, "message": "Order received"})
}

func (s *Server) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var order models.Order
	if err := s.db.Preload("Items").First(&order, id).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, order)
}
