package repository

import (
	"context"

	"gorm.io/gorm"

	"go-inventory-ledger/internal/model"
)

type CompanyRepository interface {
	Create(ctx context.Context, company *model.Company) error
	FindByID(ctx context.Context, id uint) (*model.Company, error)
}

type companyRepo struct {
	db *gorm.DB
}

func NewCompanyRepo(db *gorm.DB) CompanyRepository {
	return &companyRepo{db}
}

func (r *companyRepo) Create(ctx context.Context, company *model.Company) error {
	return storeErr("create company", r.db.WithContext(ctx).Create(company).Error)
}

func (r *companyRepo) FindByID(ctx context.Context, id uint) (*model.Company, error) {
	var company model.Company
	if err := r.db.WithContext(ctx).First(&company, id).Error; err != nil {
		return nil, storeErr("find company", err)
	}
	return &company, nil
}
