package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/rentals/internal/model"
	"github.com/nurpe/rentals/internal/service"
)

type signRequest struct {
	SignerRole    string `json:"signer_role"`
	SignerName    string `json:"signer_name" binding:"required"`
	SignatureData string `json:"signature_data" binding:"required"`
	Token         string `json:"token"`
}

func (h *Handler) listSignatures(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	signatures, err := h.svc.Signatures.ListByContract(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, signatures)
}

// signContract records a signature. With a signing-link token the role comes
// from the token, and the token must belong to this contract.
func (h *Handler) signContract(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req signRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := model.SignerRole(strings.ToUpper(strings.TrimSpace(req.SignerRole)))
	token := strings.TrimSpace(req.Token)
	if token == "" {
		token = strings.TrimSpace(c.Query("token"))
	}
	if token != "" {
		if h.cfg.Tokens == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "signing links are disabled"})
			return
		}
		claims, err := h.cfg.Tokens.Parse(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signing token"})
			return
		}
		if claims.ContractID != id {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "signing token belongs to another contract"})
			return
		}
		role = claims.Role
	}

	ip := c.ClientIP()
	result, err := h.svc.Signatures.Create(c.Request.Context(), service.CreateSignatureInput{
		ContractID:    id,
		SignerRole:    role,
		SignerName:    req.SignerName,
		SignatureData: req.SignatureData,
		IPAddress:     &ip,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *Handler) deleteSignature(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Signatures.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) verifySignature(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	valid, err := h.svc.Signatures.Verify(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "verified": valid})
}
