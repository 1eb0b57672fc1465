package misc

import (
	"net/http"

	"github.com/2beens/stryde/pkg"

	"github.com/gorilla/mux"
)

type Handler struct {
	versionInfo string
}

func NewHandler(versionInfo string) *Handler {
	return &Handler{
		versionInfo: versionInfo,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	mainRouter.HandleFunc("/", handler.handleRoot).Methods("GET", "OPTIONS").Name("root")
	mainRouter.HandleFunc("/version", handler.handleGetVersionInfo).Methods("GET").Name("version")
}

func (handler *Handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, "I'm OK, thanks ;)")
}

func (handler *Handler) handleGetVersionInfo(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, handler.versionInfo)
}
