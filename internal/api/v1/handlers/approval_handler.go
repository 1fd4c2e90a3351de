package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/reelforge/reelforge/internal/approval"
)

// DecisionRequest is the body of an approval decision.
type DecisionRequest struct {
	Approved bool   `json:"approved"`
	Feedback string `json:"feedback,omitempty"`
}

// ApprovalHandler exposes checkpoint decisions over HTTP
type ApprovalHandler struct {
	gate *approval.Gate
}

// NewApprovalHandler creates a new approval handler instance
func NewApprovalHandler(gate *approval.Gate) *ApprovalHandler {
	return &ApprovalHandler{gate: gate}
}

// Decide resolves a pending checkpoint. Late or duplicate decisions return
// 409, the first decision already won.
func (h *ApprovalHandler) Decide(c *fiber.Ctx) error {
	jobID := c.Params("jobID")
	checkpoint := c.Params("checkpoint")
	if jobID == "" || checkpoint == "" {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput("job id and checkpoint are required"))
	}

	var req DecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput(fmt.Sprintf("invalid request body: %v", err)))
	}

	if ok := h.gate.HandleDecision(c.Context(), jobID, checkpoint, req.Approved, req.Feedback); !ok {
		return c.Status(fiber.StatusConflict).
			JSON(errNotFound(fmt.Sprintf("no pending %s checkpoint for job %s", checkpoint, jobID)))
	}
	return c.JSON(success(fiber.Map{"resolved": true}))
}
