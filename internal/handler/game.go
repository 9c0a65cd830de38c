package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/sovieeet/gamevault/internal/models"
	"github.com/sovieeet/gamevault/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GameHandler serves the videogame catalog.
type GameHandler struct {
	DB *gorm.DB
}

func NewGameHandler(db *gorm.DB) *GameHandler {
	return &GameHandler{DB: db}
}

type gameReq struct {
	Name        string `json:"name" binding:"required"`
	ReleaseYear int    `json:"release_year" binding:"required"`
	Developer   string `json:"developer" binding:"required"`
	ImageURL    string `json:"image_url" binding:"required,url"`
}

func (r *gameReq) validate() error {
	if r.ReleaseYear < 1950 || r.ReleaseYear > time.Now().Year()+2 {
		return fmt.Errorf("release_year out of range: %d", r.ReleaseYear)
	}
	if len(r.Name) > 128 {
		return fmt.Errorf("name too long")
	}
	return nil
}

func gameJSON(g *models.Videogame) gin.H {
	return gin.H{
		"id":           g.ID,
		"name":         g.Name,
		"release_year": g.ReleaseYear,
		"developer":    g.Developer,
		"image_url":    g.ImageURL,
	}
}

// List returns the whole catalog to any authenticated user.
func (h *GameHandler) List(c *gin.Context) {
	var games []models.Videogame
	if err := h.DB.Order("id").Find(&games).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "list videogames failed")
		return
	}

	out := make([]gin.H, 0, len(games))
	for i := range games {
		out = append(out, gameJSON(&games[i]))
	}
	util.Success(c, util.Response{
		"games": out,
	})
}

// Create adds a catalog entry. Admin only.
func (h *GameHandler) Create(c *gin.Context) {
	if _, ok := requireAdmin(c, h.DB); !ok {
		return
	}

	var req gameReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	game := models.Videogame{
		Name:        req.Name,
		ReleaseYear: req.ReleaseYear,
		Developer:   req.Developer,
		ImageURL:    req.ImageURL,
	}
	if err := h.DB.Create(&game).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "create videogame failed")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"code": util.CodeOK,
		"data": util.Response{
			"message": "videogame added successfully",
			"game":    gameJSON(&game),
		},
	})
}

// Update replaces a catalog entry looked up by name. Admin only.
func (h *GameHandler) Update(c *gin.Context) {
	if _, ok := requireAdmin(c, h.DB); !ok {
		return
	}

	var req gameReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	name := c.Param("name")
	var game models.Videogame
	if err := h.DB.Where("name = ?", name).First(&game).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "videogame not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "query videogame failed")
		}
		return
	}

	game.Name = req.Name
	game.ReleaseYear = req.ReleaseYear
	game.Developer = req.Developer
	game.ImageURL = req.ImageURL
	if err := h.DB.Save(&game).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "update videogame failed")
		return
	}

	util.Success(c, util.Response{
		"message": "videogame updated successfully",
		"game":    gameJSON(&game),
	})
}

// Delete removes a catalog entry by name. Admin only.
func (h *GameHandler) Delete(c *gin.Context) {
	if _, ok := requireAdmin(c, h.DB); !ok {
		return
	}

	name := c.Param("name")
	res := h.DB.Where("name = ?", name).Delete(&models.Videogame{})
	if res.Error != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "delete videogame failed")
		return
	}
	if res.RowsAffected == 0 {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "videogame not found")
		return
	}

	util.Success(c, util.Response{
		"message": fmt.Sprintf("videogame %q deleted successfully", name),
	})
}
