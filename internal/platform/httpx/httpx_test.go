package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRespondErrorMapsKinds(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{Errorf(ErrNotFound, "Cita no encontrada"), http.StatusNotFound, "Cita no encontrada"},
		{Errorf(ErrDuplicate, "El estilista ya existe"), http.StatusConflict, "El estilista ya existe"},
		{fmt.Errorf("wrap: %w", Errorf(ErrValidation, "Dato numérico inválido")), http.StatusBadRequest, "Dato numérico inválido"},
		{errors.New("connection refused"), http.StatusInternalServerError, GenericFailure},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err)
		require.Equal(t, tc.status, rr.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		require.Equal(t, "error", body["status"])
		require.Equal(t, tc.message, body["message"])
	}
}

func TestSuccessMergesFields(t *testing.T) {
	rr := httptest.NewRecorder()
	Success(rr, "Servicio registrado", Envelope{"comision": 50000.0})

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "success", body["status"])
	require.Equal(t, "Servicio registrado", body["message"])
	require.InDelta(t, 50000.0, body["comision"], 0.0001)
}

func TestNumberAcceptsStringsAndNumbers(t *testing.T) {
	var payload struct {
		A Number `json:"a"`
		B Number `json:"b"`
		C Number `json:"c"`
		D Number `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 100000, "b": "2500.5", "c": null}`), &payload))
	require.True(t, payload.A.Set)
	require.InDelta(t, 100000.0, payload.A.Value, 0.0001)
	require.InDelta(t, 2500.5, payload.B.Value, 0.0001)
	require.False(t, payload.C.Set)
	require.False(t, payload.D.Set)

	require.Error(t, json.Unmarshal([]byte(`{"a": "abc"}`), &payload))
}

func TestDecodeJSONRejectsGarbage(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	var target map[string]any
	err := DecodeJSON(req, &target)
	require.ErrorIs(t, err, ErrValidation)
}
