package controller

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/quonpass/quonpass-backend/internal/app/model"
	"github.com/quonpass/quonpass-backend/internal/app/repository"
	"github.com/quonpass/quonpass-backend/internal/app/service"
	"github.com/quonpass/quonpass-backend/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db     *gorm.DB
	router *gin.Engine
	store  *model.Store
}

// setupTestEnv wires every controller against an in-memory database.
// Requests run as an admin with id 1.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	storeRepo := repository.NewStoreRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	targetRepo := repository.NewTargetRepository(testDB)
	salesRepo := repository.NewSalesRepository(testDB)

	dashboardService := service.NewDashboardService(targetRepo, salesRepo, storeRepo, nil, 0)
	targets := NewTargetController(service.NewTargetService(targetRepo, storeRepo, dashboardService))
	stores := NewStoreController(service.NewStoreService(storeRepo))
	products := NewProductController(service.NewProductService(productRepo), nil)
	sales := NewSalesController(service.NewSalesService(salesRepo, storeRepo, productRepo, dashboardService), nil)
	dashboard := NewDashboardController(dashboardService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", uint(1))
		c.Set("user_role", model.RoleAdmin)
		c.Next()
	})

	router.GET("/targets", targets.ListAnnualTargets)
	router.POST("/targets", targets.CreateAnnualTarget)
	router.GET("/targets/:id", targets.GetAnnualTarget)
	router.PUT("/targets/:id", targets.UpdateAnnualTarget)
	router.DELETE("/targets/:id", targets.DeleteAnnualTarget)
	router.POST("/targets/:id/distribute", targets.DistributeAnnualTarget)
	router.GET("/targets/:id/allocation", targets.GetAllocation)
	router.GET("/targets/monthly", targets.ListMonthlyTargets)
	router.POST("/targets/monthly", targets.CreateMonthlyTarget)
	router.GET("/targets/monthly/:id", targets.GetMonthlyTarget)
	router.PUT("/targets/monthly/:id", targets.UpdateMonthlyTarget)
	router.DELETE("/targets/monthly/:id", targets.DeleteMonthlyTarget)
	router.GET("/targets/weekly", targets.ListWeeklyTargets)
	router.POST("/targets/weekly", targets.CreateWeeklyTarget)
	router.PUT("/targets/weekly/:id", targets.UpdateWeeklyTarget)
	router.DELETE("/targets/weekly/:id", targets.DeleteWeeklyTarget)
	router.GET("/targets/daily", targets.ListDailyTargets)
	router.POST("/targets/daily", targets.CreateDailyTarget)
	router.PUT("/targets/daily/:id", targets.UpdateDailyTarget)
	router.DELETE("/targets/daily/:id", targets.DeleteDailyTarget)

	router.GET("/stores", stores.ListStores)
	router.POST("/stores", stores.CreateStore)
	router.GET("/stores/:id", stores.GetStore)
	router.PATCH("/stores/:id/status", stores.ChangeStatus)
	router.DELETE("/stores/:id", stores.DeleteStore)

	router.GET("/products", products.ListProducts)
	router.POST("/products", products.CreateProduct)
	router.POST("/products/upload-url", products.CreateUploadURL)
	router.GET("/products/:id", products.GetProduct)
	router.PUT("/products/:id", products.UpdateProduct)
	router.DELETE("/products/:id", products.DeleteProduct)

	router.GET("/sales", sales.ListSales)
	router.POST("/sales", sales.CreateSale)
	router.POST("/sales/import", sales.ImportSales)
	router.DELETE("/sales/:id", sales.DeleteSale)

	router.GET("/dashboard/progress", dashboard.GetProgress)

	store := &model.Store{Name: "Shinjuku", Code: "SJK-01"}
	require.NoError(t, testDB.Create(store).Error)

	return &testEnv{db: testDB, router: router, store: store}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), w.Body.String())
}

// errorBody mirrors errors.ErrorResponse.
type errorBody struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details"`
}

func mustStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
}
