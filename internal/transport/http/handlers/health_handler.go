package handlers

import (
	"net/http"

	"github.com/dogepandaCodes/PokinPokin/internal/transport/http/dto"
	httperrors "github.com/dogepandaCodes/PokinPokin/internal/transport/http/errors"
)

func Health(w http.ResponseWriter, _ *http.Request) {
	httperrors.Write(w, http.StatusOK, dto.HealthResponse{Status: "ok"})
}
