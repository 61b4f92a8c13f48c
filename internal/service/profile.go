package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/flicky/marketplace-api/internal/dto"
	"github.com/flicky/marketplace-api/internal/model"
	"github.com/flicky/marketplace-api/internal/repository"
)

type ProfileService struct {
	userRepo repository.UserRepository
}

func NewProfileService(userRepo repository.UserRepository) *ProfileService {
	return &ProfileService{userRepo: userRepo}
}

func (s *ProfileService) Get(ctx context.Context, id int64) (*dto.ProfileResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	resp := toProfileResponse(user)
	return &resp, nil
}

// Update changes the caller's own profile. Password and role are not
// editable here.
func (s *ProfileService) Update(ctx context.Context, callerID, id int64, req dto.UpdateProfileRequest) error {
	if callerID != id {
		return ErrProfileAccessDenied
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	user.Name = req.Name
	user.Email = strings.TrimSpace(req.Email)
	user.Phone = req.Phone
	user.Address = req.Address
	user.Image = req.Image

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return ErrEmailTaken
		case errors.Is(err, repository.ErrNotFound):
			return ErrUserNotFound
		}
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

func toProfileResponse(u *model.User) dto.ProfileResponse {
	return dto.ProfileResponse{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Phone:   u.Phone,
		Address: u.Address,
		Image:   u.Image,
		Role:    u.Role,
	}
}
