package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apierrors "github.com/pragyanetra/console/internal/errors"
	"github.com/pragyanetra/console/internal/middleware"
	"github.com/pragyanetra/console/internal/monitoring"
	"github.com/pragyanetra/console/internal/payment"
	"github.com/pragyanetra/console/internal/publish"
	"github.com/pragyanetra/console/internal/store"
	"github.com/pragyanetra/console/internal/upload"
	"github.com/pragyanetra/console/internal/wallet"
)

// handleWalletConnect runs the wallet session protocol to completion.
// Safe to call again while connected; it returns the bound account.
func (s *APIServer) handleWalletConnect(c *gin.Context) {
	account, err := s.session.Connect(c.Request.Context())
	if err != nil {
		monitoring.RecordWalletConnect("failed")
		respondError(c, connectAPIError(err))
		return
	}

	monitoring.RecordWalletConnect("connected")
	c.JSON(http.StatusOK, gin.H{
		"state":   s.session.State().String(),
		"account": account,
		"chain":   s.config.Chain.Name,
	})
}

// handleWalletDisconnect drops the local session state
func (s *APIServer) handleWalletDisconnect(c *gin.Context) {
	s.session.Disconnect()
	c.JSON(http.StatusOK, gin.H{"state": s.session.State().String()})
}

// handleWalletStatus reports the current session state
func (s *APIServer) handleWalletStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state":   s.session.State().String(),
		"account": s.session.Account(),
	})
}

// handleWalletBalance returns the connected account's native balance,
// truncated to whole tokens.
func (s *APIServer) handleWalletBalance(c *gin.Context) {
	account := s.session.Account()
	if account == "" {
		respondError(c, apierrors.ErrWalletRequiredError)
		return
	}

	balance, err := wallet.Balance(c.Request.Context(), s.node, account)
	if err != nil {
		respondError(c, apierrors.ErrNodeUnavailableError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account": account,
		"balance": balance,
		"symbol":  s.config.Chain.CurrencySymbol,
	})
}

type bindWalletRequest struct {
	Address string `json:"address"`
}

// handleBindWallet records the connected wallet address on the caller's
// provider profile. A profile binds a wallet at most once.
func (s *APIServer) handleBindWallet(c *gin.Context) {
	providerID := middleware.GetProviderIDFromContext(c)
	if providerID == "" {
		respondError(c, apierrors.ErrInvalidCredentialsError)
		return
	}

	var req bindWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	address := req.Address
	if address == "" {
		address = s.session.Account()
	}
	if address == "" {
		respondError(c, apierrors.ErrWalletRequiredError)
		return
	}

	if err := s.store.BindWallet(c.Request.Context(), providerID, address); err != nil {
		switch {
		case errors.Is(err, store.ErrProviderNotFound):
			respondError(c, apierrors.ErrProviderNotFoundError)
		case errors.Is(err, store.ErrWalletAlreadyBound):
			respondError(c, apierrors.ErrWalletAlreadyBoundError)
		default:
			respondError(c, apierrors.ErrInternalServerError)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"provider_id": providerID, "wallet_address": address})
}

// handlePublishCourse runs the full publication workflow from a multipart
// form: metadata fields, a banner image, and one or more video references.
func (s *APIServer) handlePublishCourse(c *gin.Context) {
	providerID := middleware.GetProviderIDFromContext(c)
	if providerID == "" {
		respondError(c, apierrors.ErrInvalidCredentialsError)
		return
	}

	price, err := decimal.NewFromString(c.PostForm("price"))
	if err != nil {
		respondError(c, apierrors.NewValidationError("price must be a decimal number"))
		return
	}

	banner, apiErr := s.readBanner(c)
	if apiErr != nil {
		respondError(c, apiErr)
		return
	}

	req := &publish.Request{
		ProviderID:  providerID,
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Price:       price,
		Banner:      banner,
		VideoRefs:   c.PostFormArray("video_urls"),
	}

	var stages []string
	id, err := s.coordinator.Publish(c.Request.Context(), req, func(label string) {
		stages = append(stages, label)
	})
	if err != nil {
		respondError(c, workflowAPIError(err))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"course_id": id, "progress": stages})
}

type editVideoRequest struct {
	URL string `json:"url" binding:"required"`
}

// handleEditVideo replaces one video reference on a course for a fixed fee
func (s *APIServer) handleEditVideo(c *gin.Context) {
	providerID := middleware.GetProviderIDFromContext(c)
	if providerID == "" {
		respondError(c, apierrors.ErrInvalidCredentialsError)
		return
	}

	courseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apierrors.NewInvalidRequestError("Invalid course id"))
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		respondError(c, apierrors.NewInvalidRequestError("Invalid video index"))
		return
	}

	var req editVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}

	editErr := s.editor.EditVideo(c.Request.Context(), &publish.EditRequest{
		ProviderID: providerID,
		CourseID:   courseID,
		Index:      index,
		NewRef:     req.URL,
	}, nil)
	if editErr != nil {
		respondError(c, workflowAPIError(editErr))
		return
	}

	c.JSON(http.StatusOK, gin.H{"course_id": courseID, "index": index})
}

type rechargeRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// handleRecharge stakes tokens and credits the provider's learn balance at
// 1000 points per whole token staked.
func (s *APIServer) handleRecharge(c *gin.Context) {
	providerID := middleware.GetProviderIDFromContext(c)
	if providerID == "" {
		respondError(c, apierrors.ErrInvalidCredentialsError)
		return
	}

	var req rechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apierrors.NewValidationError(err.Error()))
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		respondError(c, apierrors.NewValidationError("amount must be a positive decimal number"))
		return
	}

	whole := amount.Floor()
	receipt, err := s.gate.Pay(c.Request.Context(), payment.StakeForCourseSlots(int(whole.IntPart())), amount)
	if err != nil {
		respondError(c, paymentAPIError(err))
		return
	}

	credit := whole.IntPart() * 1000
	balance, err := s.store.CreditLearnBalance(c.Request.Context(), providerID, credit)
	if err != nil {
		// The stake settled. The credit must not be silently lost.
		respondError(c, apierrors.ErrInternalServerError.WithDetails(gin.H{
			"tx_hash":         receipt.TxHash,
			"payment_settled": true,
		}))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tx_hash":       receipt.TxHash,
		"credited":      credit,
		"learn_balance": balance,
	})
}

// readBanner pulls the banner image out of the multipart form and validates
// it locally before anything is paid or sent anywhere.
func (s *APIServer) readBanner(c *gin.Context) (upload.Asset, *apierrors.APIError) {
	file, header, err := c.Request.FormFile("banner")
	if err != nil {
		return upload.Asset{}, apierrors.NewValidationError("banner image is required")
	}
	defer file.Close()

	if header.Size > s.config.Upload.MaxBytes {
		return upload.Asset{}, apierrors.ErrAssetTooLargeError
	}

	data, err := io.ReadAll(io.LimitReader(file, s.config.Upload.MaxBytes+1))
	if err != nil {
		return upload.Asset{}, apierrors.NewValidationError("banner image could not be read")
	}
	if int64(len(data)) > s.config.Upload.MaxBytes {
		return upload.Asset{}, apierrors.ErrAssetTooLargeError
	}

	asset := upload.Asset{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}
	if err := s.uploads.Validate(asset); err != nil {
		switch {
		case errors.Is(err, upload.ErrAssetTooLarge):
			return upload.Asset{}, apierrors.ErrAssetTooLargeError
		case errors.Is(err, upload.ErrInvalidAssetType):
			return upload.Asset{}, apierrors.ErrUnsupportedAssetError
		default:
			return upload.Asset{}, apierrors.NewValidationError(err.Error())
		}
	}
	return asset, nil
}

// connectAPIError maps wallet session failures to API errors
func connectAPIError(err error) *apierrors.APIError {
	switch {
	case errors.Is(err, wallet.ErrNoProvider):
		return apierrors.ErrWalletRequiredError.WithMessage("No wallet is installed")
	case errors.Is(err, wallet.ErrUserRejected):
		return apierrors.ErrPaymentRejectedError.WithMessage("Connection request was rejected in the wallet")
	case errors.Is(err, wallet.ErrRequestPending):
		return apierrors.ErrWorkflowBusyError.WithMessage("A wallet request is already pending; check the wallet popup")
	case errors.Is(err, wallet.ErrSwitchRejected):
		return apierrors.NewInvalidRequestError("Network switch was rejected in the wallet")
	case errors.Is(err, wallet.ErrChainAddRejected):
		return apierrors.NewInvalidRequestError("Adding the network was rejected in the wallet")
	case errors.Is(err, wallet.ErrNoAccounts):
		return apierrors.NewInvalidRequestError("The wallet returned no accounts")
	default:
		return apierrors.ErrNodeUnavailableError
	}
}

// paymentAPIError maps payment gate failures to API errors
func paymentAPIError(err error) *apierrors.APIError {
	switch {
	case errors.Is(err, payment.ErrSignerUnavailable):
		return apierrors.ErrWalletRequiredError
	case errors.Is(err, payment.ErrTxRejected):
		return apierrors.ErrPaymentRejectedError
	case errors.Is(err, payment.ErrTxReverted):
		return apierrors.ErrPaymentFailedError.WithMessage("Transaction reverted on chain")
	case errors.Is(err, payment.ErrProviderComm):
		return apierrors.ErrPaymentFailedError.WithMessage("Could not confirm whether the transaction was sent")
	case errors.Is(err, payment.ErrInvalidAmount):
		return apierrors.NewValidationError("amount must be greater than zero")
	default:
		return apierrors.ErrInternalServerError
	}
}

// workflowAPIError maps coordinator failures to API errors, carrying the
// stage and whether payment settled so clients can decide about retries.
func workflowAPIError(err error) *apierrors.APIError {
	if errors.Is(err, publish.ErrAlreadyInProgress) {
		return apierrors.ErrWorkflowBusyError
	}

	var stageErr *publish.StageError
	if !errors.As(err, &stageErr) {
		return apierrors.ErrInternalServerError
	}

	details := gin.H{
		"stage":           string(stageErr.Stage),
		"payment_settled": stageErr.PaymentSettled,
	}

	var base *apierrors.APIError
	switch stageErr.Kind {
	case publish.FailValidation:
		if errors.Is(stageErr.Err, publish.ErrNotOwner) {
			base = apierrors.ErrCourseNotOwnedError
		} else if errors.Is(stageErr.Err, store.ErrCourseNotFound) {
			base = apierrors.ErrCourseNotFoundError
		} else {
			base = apierrors.NewValidationError(stageErr.Err.Error())
		}
	case publish.FailWalletUnavailable:
		base = apierrors.ErrWalletRequiredError
	case publish.FailUserRejected:
		base = apierrors.ErrPaymentRejectedError
	case publish.FailTransaction:
		base = apierrors.ErrPaymentFailedError
	case publish.FailUpload:
		base = apierrors.ErrUploadFailedError
	case publish.FailPersistence:
		base = apierrors.ErrInternalServerError
	default:
		base = apierrors.ErrInternalServerError
	}

	return base.WithDetails(details)
}
