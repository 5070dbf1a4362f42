package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"doccatalog/internal/http/middleware"
	"doccatalog/internal/model"
	"doccatalog/internal/service"
)

func ownerFrom(c *fiber.Ctx) (string, bool) {
	id, ok := middleware.IdentityFrom(c)
	return id.UserID, ok
}

func unauthorized(c *fiber.Ctx) error {
	return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
}

// query returns a copy of a query value. fiber's strings point into the
// request buffer, which is reused once the handler returns.
func query(c *fiber.Ctx, key string) string {
	return utils.CopyString(c.Query(key))
}

// formValue is the multipart counterpart of query.
func formValue(c *fiber.Ctx, key string) string {
	return utils.CopyString(c.FormValue(key))
}

// viewUpdateFromQuery reads search, category, sort and order. Only
// parameters present in the query change the view; category=all clears the
// category filter. Values outlive the request in the owner's view state.
func viewUpdateFromQuery(c *fiber.Ctx) service.ViewUpdate {
	args := c.Context().QueryArgs()
	var u service.ViewUpdate
	if args.Has("search") {
		v := query(c, "search")
		u.SearchTerm = &v
	}
	if args.Has("category") {
		v := query(c, "category")
		if strings.EqualFold(v, "all") {
			v = ""
		}
		u.SelectedCategory = &v
	}
	if args.Has("sort") {
		f := model.SortField(query(c, "sort"))
		u.SortField = &f
	}
	if args.Has("order") {
		o := model.SortOrder(strings.ToLower(query(c, "order")))
		u.SortOrder = &o
	}
	return u
}

// ListDocuments returns the derived view after applying any view parameters
// from the query string.
//
// @Summary  List documents
// @Tags     documents
// @Produce  json
// @Param    search    query string false "Case-insensitive search over name, tags and description"
// @Param    category  query string false "Category id, or all"
// @Param    sort      query string false "name, createdAt, modifiedAt, size or type"
// @Param    order     query string false "asc or desc"
// @Success  200 {object} service.ListResult
// @Failure  400 {object} errorPayload
// @Router   /documents [get]
func ListDocuments(svc service.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner, ok := ownerFrom(c)
		if !ok {
			return unauthorized(c)
		}
		res, err := svc.List(c.UserContext(), owner, viewUpdateFromQuery(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// GetDocument returns one document.
//
// @Summary  Get document
// @Tags     documents
// @Produce  json
// @Param    id  path string true "Document id"
// @Success  200 {object} model.Document
// @Failure  404 {object} errorPayload
// @Router   /documents/{id} [get]
func GetDocument(svc service.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner, ok := ownerFrom(c)
		if !ok {
			return unauthorized(c)
		}
		doc, err := svc.Get(c.UserContext(), owner, c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// CreateDocument adds a document from a JSON body.
//
// @Summary  Add document
// @Tags     documents
// @Accept   json
// @Produce  json
// @Param    document body model.DocumentInput true "Document"
// @Success  201 {object} model.Document
// @Failure  400 {object} errorPayload
// @Router   /documents [post]
func CreateDocument(svc service.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner, ok := ownerFrom(c)
		if !ok {
			return unauthorized(c)
		}
		var in model.DocumentInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		doc, err := svc.Add(c.UserContext(), owner, in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// UploadDocument adds a document pre-filled from an uploaded file. Only the
// file's name, size and content type are used; its bytes are discarded.
//
// @Summary  Add document from upload
// @Tags     documents
// @Accept   multipart/form-data
// @Produce  json
// @Param    file         formData file   true  "File"
// @Param    name         formData string false "Display name"
// @Param    description  formData string false "Description"
// @Param    tags         formData string false "Comma separated tags"
// @Param    category     formData string false "Category id"
// @Success  201 {object} model.Document
// @Failure  400 {object} errorPayload
// @Router   /documents/upload [post]
func UploadDocument(svc service.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner, ok := ownerFrom(c)
		if !ok {
			return unauthorized(c)
		}
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		doc, err := svc.AddFromUpload(c.UserContext(), owner, service.UploadInput{
			Filename:    utils.CopyString(fh.Filename),
			ContentType: utils.CopyString(ct),
			Size:        fh.Size,
			Name:        formValue(c, "name"),
			Description: formValue(c, "description"),
			Tags:        formValue(c, "tags"),
			Category:    formValue(c, "category"),
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// UpdateDocument merges a partial update.
//
// @Summary  Update document
// @Tags     documents
// @Accept   json
// @Produce  json
// @Param    id     path string              true "Document id"
// @Param    patch  body model.DocumentPatch true "Fields to change"
// @Success  200 {object} model.Document
// @Failure  400 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Router   /documents/{id} [patch]
func UpdateDocument(svc service.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner, ok := ownerFrom(c)
		if !ok {
			return unauthorized(c)
		}
		var patch model.DocumentPatch
		if err := c.BodyParser(&patch); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		doc, err := svc.Update(c.UserContext(), owner, c.Params("id"), patch)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// DeleteDocument removes a document. Unknown ids also answer 204.
//
// @Summary  Delete document
// @Tags     documents
// @Param    id  path string true "Document id"
// @Success  204
// @Router   /documents/{id} [delete]
func DeleteDocument(svc service.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner, ok := ownerFrom(c)
		if !ok {
			return unauthorized(c)
		}
		if err := svc.Delete(c.UserContext(), owner, c.Params("id")); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ToggleFavorite flips the favorite flag.
//
// @Summary  Toggle favorite
// @Tags     documents
// @Produce  json
// @Param    id  path string true "Document id"
// @Success  200 {object} model.Document
// @Failure  404 {object} errorPayload
// @Router   /documents/{id}/favorite [post]
func ToggleFavorite(svc service.CatalogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		owner, ok := ownerFrom(c)
		if !ok {
			return unauthorized(c)
		}
		doc, err := svc.ToggleFavorite(c.UserContext(), owner, c.Params("id"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}
