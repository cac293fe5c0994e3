package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"foodgram-backend/domain"
	"foodgram-backend/entities"
	"foodgram-backend/internal/utils"
	"foodgram-backend/internal/utils/mailing"
	"foodgram-backend/pkg/jwt"
	"foodgram-backend/pkg/membership"
	"foodgram-backend/pkg/recipe"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type (
	UserService interface {
		Register(ctx context.Context, req domain.RegisterRequest) (domain.UserResponse, error)
		Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error)
		Me(ctx context.Context, userID string) (domain.UserResponse, error)
		UpdateUser(ctx context.Context, req domain.UpdateUserRequest, userID string) (domain.UserResponse, error)
		GetUsers(ctx context.Context, page, limit int, userID string) ([]domain.UserResponse, int64, error)
		GetUserDetail(ctx context.Context, targetID string, userID string) (domain.UserResponse, error)
		ForgotPassword(ctx context.Context, req domain.ForgotPasswordRequest) error
		ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error
		Subscribe(ctx context.Context, targetID string, userID string, recipesLimit int) (domain.ProfileResponse, error)
		Unsubscribe(ctx context.Context, targetID string, userID string) error
		GetSubscriptions(ctx context.Context, userID string, page, limit, recipesLimit int) ([]domain.ProfileResponse, int64, error)
	}

	userService struct {
		userRepository   UserRepository
		recipeRepository recipe.RecipeRepository
		jwtService       jwt.JWTService
		follows          *membership.Relation
	}
)

func NewUserService(
	userRepository UserRepository,
	recipeRepository recipe.RecipeRepository,
	jwtService jwt.JWTService,
	follows *membership.Relation,
) UserService {
	return &userService{
		userRepository:   userRepository,
		recipeRepository: recipeRepository,
		jwtService:       jwtService,
		follows:          follows,
	}
}

func toUserResponse(user *entities.User, subscribed bool) domain.UserResponse {
	return domain.UserResponse{
		ID:           user.ID.String(),
		Email:        user.Email,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		IsSubscribed: subscribed,
	}
}

func (s *userService) getUser(ctx context.Context, id string) (*entities.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrUserNotFound
	}

	user, err := s.userRepository.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) Register(ctx context.Context, req domain.RegisterRequest) (domain.UserResponse, error) {
	if _, err := s.userRepository.GetUserByEmail(ctx, req.Email); err == nil {
		return domain.UserResponse{}, domain.ErrEmailAlreadyRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.UserResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.UserResponse{}, err
	}

	user := &entities.User{
		ID:        uuid.New(),
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  string(hash),
		Role:      domain.RoleUser,
	}
	if err := s.userRepository.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.UserResponse{}, domain.ErrEmailAlreadyRegistered
		}
		return domain.UserResponse{}, err
	}

	return toUserResponse(user, false), nil
}

func (s *userService) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	user, err := s.userRepository.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.LoginResponse{}, domain.ErrCredentialsInvalid
		}
		return domain.LoginResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return domain.LoginResponse{}, domain.ErrCredentialsInvalid
	}

	token := s.jwtService.GenerateTokenUser(user.ID.String(), user.Role)
	return domain.LoginResponse{
		ID:    user.ID.String(),
		Email: user.Email,
		Token: token,
		Role:  user.Role,
	}, nil
}

func (s *userService) Me(ctx context.Context, userID string) (domain.UserResponse, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return domain.UserResponse{}, err
	}
	return toUserResponse(user, false), nil
}

func (s *userService) UpdateUser(ctx context.Context, req domain.UpdateUserRequest, userID string) (domain.UserResponse, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return domain.UserResponse{}, err
	}

	if req.Username != "" {
		user.Username = req.Username
	}
	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}

	if err := s.userRepository.UpdateUser(ctx, user); err != nil {
		return domain.UserResponse{}, err
	}
	return toUserResponse(user, false), nil
}

func (s *userService) GetUsers(ctx context.Context, page, limit int, userID string) ([]domain.UserResponse, int64, error) {
	users, count, err := s.userRepository.GetUsers(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	subscribed := map[uuid.UUID]bool{}
	if userID != "" && len(users) > 0 {
		uid, err := uuid.Parse(userID)
		if err != nil {
			return nil, 0, domain.ErrParseUUID
		}
		ids := make([]uuid.UUID, 0, len(users))
		for _, u := range users {
			ids = append(ids, u.ID)
		}
		if subscribed, err = s.follows.Members(ctx, uid, ids); err != nil {
			return nil, 0, err
		}
	}

	res := make([]domain.UserResponse, 0, len(users))
	for _, u := range users {
		res = append(res, toUserResponse(u, subscribed[u.ID]))
	}
	return res, count, nil
}

func (s *userService) GetUserDetail(ctx context.Context, targetID string, userID string) (domain.UserResponse, error) {
	target, err := s.getUser(ctx, targetID)
	if err != nil {
		return domain.UserResponse{}, err
	}

	subscribed := false
	if userID != "" {
		uid, err := uuid.Parse(userID)
		if err != nil {
			return domain.UserResponse{}, domain.ErrParseUUID
		}
		if subscribed, err = s.follows.Exists(ctx, uid, target.ID); err != nil {
			return domain.UserResponse{}, err
		}
	}

	return toUserResponse(target, subscribed), nil
}

func (s *userService) ForgotPassword(ctx context.Context, req domain.ForgotPasswordRequest) error {
	user, err := s.userRepository.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	token, err := s.jwtService.GenerateTokenResetPassword(
		map[string]any{"user_id": user.ID.String()},
		15*time.Minute,
	)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset?token=%s", utils.GetConfig("APP_URL"), token)
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Follow <a href=%q>this link</a> to reset your password. The link expires in 15 minutes.</p>",
		user.Username, link,
	)
	return mailing.SendMail(user.Email, "Reset your password", body)
}

func (s *userService) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error {
	claims, err := s.jwtService.ValidateTokenResetPassword(req.Token)
	if err != nil {
		return err
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return domain.ErrTokenInvalid
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.Password = string(hash)
	return s.userRepository.UpdateUser(ctx, user)
}

func (s *userService) profile(ctx context.Context, user *entities.User, subscribed bool, recipesLimit int) (domain.ProfileResponse, error) {
	recipes, err := s.recipeRepository.GetRecipesByAuthor(ctx, user.ID.String(), recipesLimit)
	if err != nil {
		return domain.ProfileResponse{}, err
	}
	count, err := s.recipeRepository.CountRecipesByAuthor(ctx, user.ID.String())
	if err != nil {
		return domain.ProfileResponse{}, err
	}

	summaries := make([]domain.RecipeSummary, 0, len(recipes))
	for _, r := range recipes {
		summaries = append(summaries, domain.RecipeSummary{
			ID:          r.ID.String(),
			Name:        r.Name,
			Image:       r.ImageURL,
			CookingTime: r.CookingTime,
		})
	}

	return domain.ProfileResponse{
		UserResponse: toUserResponse(user, subscribed),
		Recipes:      summaries,
		RecipesCount: count,
	}, nil
}

func (s *userService) Subscribe(ctx context.Context, targetID string, userID string, recipesLimit int) (domain.ProfileResponse, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return domain.ProfileResponse{}, domain.ErrParseUUID
	}

	target, err := s.getUser(ctx, targetID)
	if err != nil {
		return domain.ProfileResponse{}, err
	}

	if target.ID == uid {
		return domain.ProfileResponse{}, domain.ErrSelfFollow
	}

	if err := s.follows.Add(ctx, uid, target.ID); err != nil {
		return domain.ProfileResponse{}, err
	}

	return s.profile(ctx, target, true, recipesLimit)
}

func (s *userService) Unsubscribe(ctx context.Context, targetID string, userID string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return domain.ErrParseUUID
	}

	target, err := s.getUser(ctx, targetID)
	if err != nil {
		return err
	}

	return s.follows.Remove(ctx, uid, target.ID)
}

func (s *userService) GetSubscriptions(ctx context.Context, userID string, page, limit, recipesLimit int) ([]domain.ProfileResponse, int64, error) {
	followings, count, err := s.userRepository.GetFollowings(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]domain.ProfileResponse, 0, len(followings))
	for _, u := range followings {
		p, err := s.profile(ctx, u, true, recipesLimit)
		if err != nil {
			return nil, 0, err
		}
		res = append(res, p)
	}
	return res, count, nil
}
