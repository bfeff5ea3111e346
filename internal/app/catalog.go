package app

import (
	"net/http"

	"github.com/metinatakli/pcbuilder/api"
	"github.com/metinatakli/pcbuilder/internal/domain"
)

func (app *Application) GetCatalog(w http.ResponseWriter, r *http.Request) {
	resp := api.CatalogResponse{
		Categories: make([]api.ProductCategory, len(app.catalog)),
	}

	for i, category := range app.catalog {
		resp.Categories[i] = api.ProductCategory{
			Category: category.Category,
			Options:  toApiOptions(category.Options),
		}
	}

	err := app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetOpenAPISpec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	w.Write(api.RawSpec())
}

func toApiOptions(options []domain.ProductOption) []api.ProductOption {
	apiOptions := make([]api.ProductOption, len(options))

	for i, option := range options {
		apiOptions[i] = toApiOption(option)
	}

	return apiOptions
}

func toApiOption(option domain.ProductOption) api.ProductOption {
	return api.ProductOption{
		Id:    option.ID,
		Name:  option.Name,
		Price: option.Price,
	}
}
