package handlers

import (
	"net/http"

	"github.com/juddisjudd/paxdeiclans/config"
	"github.com/juddisjudd/paxdeiclans/models"
)

// OptionsHandler returns the tag, location and language choices for the clan form
func OptionsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	config.WriteJSON(w, http.StatusOK, models.NewDirectoryOptions())
}
