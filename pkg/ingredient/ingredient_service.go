package ingredient

import (
	"context"
	"errors"

	"foodgram-backend/domain"
	"foodgram-backend/entities"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	IngredientService interface {
		GetIngredients(ctx context.Context, name string) ([]domain.IngredientResponse, error)
		GetIngredientDetail(ctx context.Context, ingredientID string) (domain.IngredientResponse, error)
		CreateIngredient(ctx context.Context, req domain.CreateIngredientRequest, role string) (domain.IngredientResponse, error)
		UpdateIngredient(ctx context.Context, ingredientID string, req domain.UpdateIngredientRequest, role string) (domain.IngredientResponse, error)
		DeleteIngredient(ctx context.Context, ingredientID string, role string) error
	}

	ingredientService struct {
		ingredientRepository IngredientRepository
	}
)

func NewIngredientService(ingredientRepository IngredientRepository) IngredientService {
	return &ingredientService{ingredientRepository: ingredientRepository}
}

func IngredientToResponse(ingredient *entities.Ingredient) domain.IngredientResponse {
	return domain.IngredientResponse{
		ID:              ingredient.ID.String(),
		Name:            ingredient.Name,
		MeasurementUnit: ingredient.MeasurementUnit,
	}
}

func (s *ingredientService) GetIngredients(ctx context.Context, name string) ([]domain.IngredientResponse, error) {
	ingredients, err := s.ingredientRepository.GetIngredients(ctx, name)
	if err != nil {
		return nil, err
	}

	res := make([]domain.IngredientResponse, 0, len(ingredients))
	for _, i := range ingredients {
		res = append(res, IngredientToResponse(i))
	}
	return res, nil
}

func (s *ingredientService) GetIngredientDetail(ctx context.Context, ingredientID string) (domain.IngredientResponse, error) {
	ingredient, err := s.ingredientRepository.GetIngredientByID(ctx, ingredientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.IngredientResponse{}, domain.ErrIngredientNotFound
		}
		return domain.IngredientResponse{}, err
	}
	return IngredientToResponse(ingredient), nil
}

func (s *ingredientService) CreateIngredient(ctx context.Context, req domain.CreateIngredientRequest, role string) (domain.IngredientResponse, error) {
	if role != domain.RoleAdmin {
		return domain.IngredientResponse{}, domain.ErrUserNotAllowed
	}

	ingredient := &entities.Ingredient{
		ID:              uuid.New(),
		Name:            req.Name,
		MeasurementUnit: req.MeasurementUnit,
	}
	if err := s.ingredientRepository.CreateIngredient(ctx, ingredient); err != nil {
		return domain.IngredientResponse{}, err
	}
	return IngredientToResponse(ingredient), nil
}

func (s *ingredientService) UpdateIngredient(ctx context.Context, ingredientID string, req domain.UpdateIngredientRequest, role string) (domain.IngredientResponse, error) {
	if role != domain.RoleAdmin {
		return domain.IngredientResponse{}, domain.ErrUserNotAllowed
	}

	ingredient, err := s.ingredientRepository.GetIngredientByID(ctx, ingredientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.IngredientResponse{}, domain.ErrIngredientNotFound
		}
		return domain.IngredientResponse{}, err
	}

	if req.Name != "" {
		ingredient.Name = req.Name
	}
	if req.MeasurementUnit != "" {
		ingredient.MeasurementUnit = req.MeasurementUnit
	}

	if err := s.ingredientRepository.UpdateIngredient(ctx, ingredient); err != nil {
		return domain.IngredientResponse{}, err
	}
	return IngredientToResponse(ingredient), nil
}

func (s *ingredientService) DeleteIngredient(ctx context.Context, ingredientID string, role string) error {
	if role != domain.RoleAdmin {
		return domain.ErrUserNotAllowed
	}

	if _, err := s.ingredientRepository.GetIngredientByID(ctx, ingredientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrIngredientNotFound
		}
		return err
	}
	return s.ingredientRepository.DeleteIngredient(ctx, ingredientID)
}
