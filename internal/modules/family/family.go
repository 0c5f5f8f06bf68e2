// Package family manages the user's family-circle contact list, persisted as
// a whole-list snapshot in the key-value backend.
package family

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zovida/core/internal/models"
	"github.com/zovida/core/internal/pkg/keyvalue"
	"github.com/zovida/core/internal/pkg/response"
)

// StorageKey is the backend key holding the serialized member list.
const StorageKey = "zovida:family"

var ErrNotFound = errors.New("family member not found")

type CreateMemberDTO struct {
	Name     string `json:"name" binding:"required"`
	Relation string `json:"relation" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
}

type toggleSettingDTO struct {
	Setting string `json:"setting" binding:"required,oneof=notifications locationAccess"`
}

// Store owns the persisted family member list.
type Store struct {
	mu      sync.Mutex
	backend keyvalue.Backend
	key     string
	log     *zap.Logger
}

func NewStore(backend keyvalue.Backend, log *zap.Logger) *Store {
	return &Store{backend: backend, key: StorageKey, log: log}
}

func (s *Store) List(ctx context.Context) ([]models.FamilyMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Add creates a member with notifications on and location access off.
func (s *Store) Add(ctx context.Context, dto *CreateMemberDTO) (*models.FamilyMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	member := models.FamilyMember{
		ID:             uuid.New().String(),
		Name:           dto.Name,
		Relation:       dto.Relation,
		Phone:          dto.Phone,
		Notifications:  true,
		LocationAccess: false,
	}
	list = append(list, member)
	if err := s.save(ctx, list); err != nil {
		return nil, err
	}
	return &member, nil
}

// ToggleSetting flips one of a member's boolean settings.
func (s *Store) ToggleSetting(ctx context.Context, id, setting string) (*models.FamilyMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID != id {
			continue
		}
		switch setting {
		case "notifications":
			list[i].Notifications = !list[i].Notifications
		case "locationAccess":
			list[i].LocationAccess = !list[i].LocationAccess
		default:
			return nil, fmt.Errorf("unknown setting %q", setting)
		}
		if err := s.save(ctx, list); err != nil {
			return nil, err
		}
		return &list[i], nil
	}
	return nil, ErrNotFound
}

// Remove deletes a member by id.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.load(ctx)
	if err != nil {
		return err
	}
	kept := list[:0]
	for _, member := range list {
		if member.ID != id {
			kept = append(kept, member)
		}
	}
	if len(kept) == len(list) {
		return ErrNotFound
	}
	return s.save(ctx, kept)
}

func (s *Store) load(ctx context.Context) ([]models.FamilyMember, error) {
	raw, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("load family members: %w", err)
	}
	if raw == "" {
		return nil, nil
	}
	var list []models.FamilyMember
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("stored family members are corrupt: %w", err)
	}
	return list, nil
}

func (s *Store) save(ctx context.Context, list []models.FamilyMember) error {
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return s.backend.Set(ctx, s.key, string(data))
}

type Handler struct {
	store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/family")
	g.GET("", h.list)
	g.POST("", h.create)
	g.POST("/:id/toggle", h.toggle)
	g.DELETE("/:id", h.remove)
}

func (h *Handler) list(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if list == nil {
		list = []models.FamilyMember{}
	}
	response.OK(c, list)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateMemberDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	member, err := h.store.Add(c.Request.Context(), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, member)
}

func (h *Handler) toggle(c *gin.Context) {
	var dto toggleSettingDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	member, err := h.store.ToggleSetting(c.Request.Context(), c.Param("id"), dto.Setting)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, member)
}

func (h *Handler) remove(c *gin.Context) {
	if err := h.store.Remove(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}
