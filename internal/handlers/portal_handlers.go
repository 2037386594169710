package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/workshala/server/internal/middleware"
	"github.com/workshala/server/internal/models"
)

// ProfileStore is the slice of the profile repository the portal needs.
type ProfileStore interface {
	Get(ctx context.Context, email string) (*models.Profile, error)
	Put(ctx context.Context, profile *models.Profile) error
}

type JobStore interface {
	List(ctx context.Context) ([]models.Job, error)
	ListByCompany(ctx context.Context, companyName string) ([]models.Job, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.Job, error)
}

type CompanyStore interface {
	List(ctx context.Context) ([]models.Company, error)
}

// Recommender delegates job ranking to the external recommendation model.
type Recommender interface {
	Recommendations(ctx context.Context, preferences []string) ([]string, error)
}

type PortalHandlers struct {
	users       UserStore
	profiles    ProfileStore
	jobs        JobStore
	companies   CompanyStore
	recommender Recommender
	logger      *logrus.Logger
}

func NewPortalHandlers(
	users UserStore,
	profiles ProfileStore,
	jobs JobStore,
	companies CompanyStore,
	recommender Recommender,
	logger *logrus.Logger,
) *PortalHandlers {
	return &PortalHandlers{
		users:       users,
		profiles:    profiles,
		jobs:        jobs,
		companies:   companies,
		recommender: recommender,
		logger:      logger,
	}
}

// Dashboard returns the authenticated user and lazily creates an empty
// profile on first visit.
func (h *PortalHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	email, _ := middleware.EmailFromContext(r.Context())

	user, err := h.users.GetByEmail(r.Context(), email)
	if err != nil {
		h.logger.WithError(err).Error("Dashboard: failed to look up user")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if user == nil {
		respondWithError(w, http.StatusNotFound, "User not found")
		return
	}

	profile, err := h.profiles.Get(r.Context(), email)
	if err != nil {
		h.logger.WithError(err).Error("Dashboard: failed to look up profile")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if profile == nil {
		newProfile := &models.Profile{Email: email, Name: user.Name}
		if err := h.profiles.Put(r.Context(), newProfile); err != nil {
			h.logger.WithError(err).Error("Dashboard: failed to create profile")
			respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
	}

	respondWithJSON(w, http.StatusOK, user)
}

func (h *PortalHandlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	email, _ := middleware.EmailFromContext(r.Context())

	profile, err := h.profiles.Get(r.Context(), email)
	if err != nil {
		h.logger.WithError(err).Error("GetProfile: failed to look up profile")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if profile == nil {
		respondWithError(w, http.StatusNotFound, "Profile not found")
		return
	}

	respondWithJSON(w, http.StatusOK, profile)
}

type updateProfileRequest struct {
	Name            string   `json:"name"`
	About           string   `json:"about"`
	Skills          []string `json:"skills"`
	CurrentCity     string   `json:"currentCity"`
	Gender          string   `json:"gender"`
	Language        string   `json:"language"`
	StudentType     string   `json:"studentType"`
	Preferences     []string `json:"preferences"`
	PositionApplied string   `json:"positionApplied"`
	WorkLocation    []string `json:"workLocation"`
	ImageURL        string   `json:"imageUrl"`
}

func (h *PortalHandlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	email, _ := middleware.EmailFromContext(r.Context())

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	profile := &models.Profile{
		Email:           email,
		Name:            req.Name,
		About:           req.About,
		Skills:          req.Skills,
		CurrentCity:     req.CurrentCity,
		Gender:          req.Gender,
		Language:        req.Language,
		StudentType:     req.StudentType,
		Preferences:     req.Preferences,
		PositionApplied: req.PositionApplied,
		WorkLocation:    req.WorkLocation,
		ImageURL:        req.ImageURL,
	}

	if err := h.profiles.Put(r.Context(), profile); err != nil {
		h.logger.WithError(err).Error("UpdateProfile: failed to store profile")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Successfully updated profile"})
}

func (h *PortalHandlers) GetJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobs.List(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("GetJobs: failed to list jobs")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respondWithJSON(w, http.StatusOK, jobs)
}

func (h *PortalHandlers) GetCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.companies.List(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("GetCompanies: failed to list companies")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respondWithJSON(w, http.StatusOK, companies)
}

type jobsByCompanyRequest struct {
	CompanyName string `json:"companyName"`
}

func (h *PortalHandlers) GetJobsByCompany(w http.ResponseWriter, r *http.Request) {
	var req jobsByCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.CompanyName) == "" {
		respondWithError(w, http.StatusBadRequest, "companyName is required")
		return
	}

	jobs, err := h.jobs.ListByCompany(r.Context(), req.CompanyName)
	if err != nil {
		h.logger.WithError(err).Error("GetJobsByCompany: failed to list jobs")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respondWithJSON(w, http.StatusOK, jobs)
}

// GetRecommendedJobs asks the external model to rank jobs against the
// user's stored preferences and resolves the returned ids.
func (h *PortalHandlers) GetRecommendedJobs(w http.ResponseWriter, r *http.Request) {
	email, _ := middleware.EmailFromContext(r.Context())

	profile, err := h.profiles.Get(r.Context(), email)
	if err != nil {
		h.logger.WithError(err).Error("GetRecommendedJobs: failed to look up profile")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if profile == nil {
		respondWithError(w, http.StatusNotFound, "Profile not found")
		return
	}

	if len(profile.Preferences) == 0 {
		respondWithJSON(w, http.StatusOK, []models.Job{})
		return
	}

	ids, err := h.recommender.Recommendations(r.Context(), profile.Preferences)
	if err != nil {
		h.logger.WithError(err).Error("GetRecommendedJobs: recommendation call failed")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	jobs, err := h.jobs.GetByIDs(r.Context(), ids)
	if err != nil {
		h.logger.WithError(err).Error("GetRecommendedJobs: failed to fetch jobs")
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respondWithJSON(w, http.StatusOK, jobs)
}
