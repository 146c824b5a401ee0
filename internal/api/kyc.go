package api

import (
	"context"

	"invest-ledger-go/internal/ledger"
	"invest-ledger-go/internal/models"
	"invest-ledger-go/internal/objectstore"
	"invest-ledger-go/internal/store"

	"go.uber.org/zap"
)

// SubmitKYC stores the identity document and selfie and records the
// submission. Eligibility is checked before anything is uploaded.
func (s *LedgerService) SubmitKYC(ctx context.Context, userId, documentType string, document, selfie Upload) (*models.KYCResult, error) {
	account, err := s.db.GetAccount(ctx, userId)
	if err != nil {
		return nil, err
	}
	if err := ledger.EvaluateKYCSubmission(account); err != nil {
		msg, _ := s.rejected(opKYC, userId, err)
		return &models.KYCResult{Success: false, KYCStatus: account.KYCStatus, Error: msg}, nil
	}
	if documentType == "" || document.Body == nil || selfie.Body == nil {
		return &models.KYCResult{Success: false, KYCStatus: account.KYCStatus, Error: "Please upload both your ID document and a selfie"}, nil
	}

	docURL, result, err := s.putKYCFile(ctx, userId, document, account.KYCStatus)
	if result != nil || err != nil {
		return result, err
	}
	selfieURL, result, err := s.putKYCFile(ctx, userId, selfie, account.KYCStatus)
	if result != nil || err != nil {
		return result, err
	}

	updated, err := s.db.SubmitKYC(ctx, store.KYCSubmission{
		UserId:       userId,
		DocumentType: documentType,
		DocumentURL:  docURL,
		SelfieURL:    selfieURL,
	})
	if err != nil {
		if msg, ok := s.rejected(opKYC, userId, err); ok {
			return &models.KYCResult{Success: false, KYCStatus: account.KYCStatus, Error: msg}, nil
		}
		return nil, err
	}

	s.accepted(opKYC)
	return &models.KYCResult{Success: true, KYCStatus: updated.KYCStatus}, nil
}

func (s *LedgerService) putKYCFile(ctx context.Context, userId string, file Upload, status models.KYCStatus) (string, *models.KYCResult, error) {
	obj, err := s.files.Put(ctx, objectstore.BucketKYC, userId, file.Filename, file.Body, s.maxUploadBytes)
	if err != nil {
		if msg, ok := uploadRejection(err); ok {
			return "", &models.KYCResult{Success: false, KYCStatus: status, Error: msg}, nil
		}
		zap.L().Error("Failed to store KYC file", zap.String("user_id", userId), zap.Error(err))
		return "", nil, err
	}
	return obj.URL, nil, nil
}
