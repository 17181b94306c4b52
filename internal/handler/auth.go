package handler

import (
	"encoding/json"
	"net/http"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login аутентифицирует пользователя и устанавливает cookie сессии.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	client, err := h.svc.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.auth.SetAuthCookie(w, client.ID)
	h.writeJSON(w, http.StatusOK, toClientResponse(client))
}

// Logout снимает cookie сессии.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.ClearAuthCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me возвращает аутентифицированного пользователя.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	client, err := h.currentClient(r)
	if err != nil {
		h.handleError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toClientResponse(client))
}

type tierPolicyResponse struct {
	RemisePourcent int64   `json:"remisePourcent"`
	MontantMinimum float64 `json:"montantMinimum"`
	MinOrders      int     `json:"minOrders"`
	MinSpent       float64 `json:"minSpent"`
}

type profileResponse struct {
	Client        clientResponse     `json:"client"`
	NiveauCalcule string             `json:"niveauCalcule"`
	Politique     tierPolicyResponse `json:"politique"`
}

// Profile возвращает профиль текущего клиента со справочным уровнем
// лояльности, рассчитанным по истории покупок.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	client, err := h.currentClient(r)
	if err != nil {
		h.handleError(w, err)
		return
	}

	profile, err := h.svc.GetProfile(r.Context(), client.ID)
	if err != nil {
		h.handleError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, profileResponse{
		Client:        toClientResponse(profile.Client),
		NiveauCalcule: string(profile.EarnedTier),
		Politique: tierPolicyResponse{
			RemisePourcent: profile.LoyaltyPolicy.RatePercent,
			MontantMinimum: centsToDH(profile.LoyaltyPolicy.MinAmountCents),
			MinOrders:      profile.LoyaltyPolicy.MinOrders,
			MinSpent:       centsToDH(profile.LoyaltyPolicy.MinSpentCents),
		},
	})
}
