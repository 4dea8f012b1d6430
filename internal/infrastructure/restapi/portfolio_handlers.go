package restapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"portfolio_aggregator/internal/app/port"
	"portfolio_aggregator/internal/app/service"
	"portfolio_aggregator/internal/domain/entity"
)

// APIPortfolioResponse определяет структуру ответа для эндпоинта портфелей.
type APIPortfolioResponse struct {
	Data struct {
		Portfolios []entity.WalletPortfolio `json:"portfolios"`
	} `json:"data"`
	ServiceErrors []entity.PortfolioError `json:"service_errors,omitempty"`
	StatusMessage string                  `json:"status_message"`
}

// APIErrorResponse is returned for rejected requests.
type APIErrorResponse struct {
	Error string `json:"error"`
}

// PortfolioHandler обрабатывает HTTP запросы, связанные с портфелями.
type PortfolioHandler struct {
	portfolioService port.PortfolioService
	jobs             port.JobStatusProvider
	platforms        []entity.Platform
	maxOwners        int
}

// NewPortfolioHandler создает новый экземпляр PortfolioHandler.
func NewPortfolioHandler(ps port.PortfolioService, jobs port.JobStatusProvider, platforms []entity.Platform, maxOwners int) *PortfolioHandler {
	if maxOwners <= 0 {
		maxOwners = 50
	}
	return &PortfolioHandler{
		portfolioService: ps,
		jobs:             jobs,
		platforms:        platforms,
		maxOwners:        maxOwners,
	}
}

// GetPortfolioHandler returns the portfolio of the owner in the path.
func (h *PortfolioHandler) GetPortfolioHandler(c *gin.Context) {
	portfolio, err := h.portfolioService.FetchPortfolio(c.Request.Context(), c.Param("owner"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidOwner) {
			c.JSON(http.StatusBadRequest, APIErrorResponse{Error: err.Error()})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, APIErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, portfolio)
}

// GetPortfoliosHandler обрабатывает запрос на получение портфелей нескольких владельцев.
// Owners come as repeated or comma-separated "owner" query parameters.
func (h *PortfolioHandler) GetPortfoliosHandler(c *gin.Context) {
	owners := parseOwners(c.QueryArray("owner"))
	if len(owners) == 0 {
		c.JSON(http.StatusBadRequest, APIErrorResponse{Error: "at least one owner is required"})
		return
	}
	if len(owners) > h.maxOwners {
		c.JSON(http.StatusBadRequest, APIErrorResponse{Error: "too many owners"})
		return
	}

	portfolios, serviceErrors := h.portfolioService.FetchPortfolios(c.Request.Context(), owners)

	response := APIPortfolioResponse{ServiceErrors: serviceErrors}
	response.Data.Portfolios = portfolios
	switch {
	case len(serviceErrors) > 0 && len(portfolios) == 0:
		response.StatusMessage = "Failed to retrieve any portfolios due to service errors."
	case len(serviceErrors) > 0:
		response.StatusMessage = "Portfolios retrieved. Some owners or fetchers may have encountered errors."
	case len(portfolios) == 0:
		response.StatusMessage = "No portfolio data found."
	default:
		response.StatusMessage = "Portfolios retrieved successfully."
	}
	// Частичные ошибки не меняют статус ответа.
	c.JSON(http.StatusOK, response)
}

// GetJobsHandler returns the scheduler state of every job.
func (h *PortfolioHandler) GetJobsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": h.jobs.Statuses()})
}

// GetPlatformsHandler lists the registered platforms.
func (h *PortfolioHandler) GetPlatformsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"platforms": h.platforms})
}

func parseOwners(values []string) []string {
	var owners []string
	seen := make(map[string]struct{})
	for _, v := range values {
		for _, owner := range strings.Split(v, ",") {
			owner = strings.TrimSpace(owner)
			if owner == "" {
				continue
			}
			key := strings.ToLower(owner)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			owners = append(owners, owner)
		}
	}
	return owners
}
