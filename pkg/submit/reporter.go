package submit

import (
	"context"

	"github.com/ilkoid/notesorter/pkg/utils"
)

// Reporter отправляет ответ и никогда не возвращает ошибку.
//
// Неудача логируется вместе с URL и телом запроса (api key замаскирован),
// чтобы оператор мог повторить отправку вручную.
type Reporter struct {
	sender Sender
}

// NewReporter оборачивает sender.
func NewReporter(sender Sender) *Reporter {
	return &Reporter{sender: sender}
}

// Submit отправляет answer для task. Возвращает true при успехе.
func (r *Reporter) Submit(ctx context.Context, task string, answer interface{}) bool {
	resp, err := r.sender.Send(ctx, task, answer)
	if err != nil {
		payload, perr := utils.RedactJSON(Payload{Task: task, Answer: answer}, "apikey")
		if perr != nil {
			payload = "<unserializable>"
		}

		errType := ClassifyError(err)
		utils.Error("Submission failed",
			"url", r.sender.URL(),
			"task", task,
			"error_type", errType.String(),
			"hint", errType.HumanMessage(),
			"payload", payload,
			"error", err)
		return false
	}

	utils.Info("Submission accepted",
		"url", r.sender.URL(),
		"task", task,
		"code", resp.Code,
		"message", resp.Message)
	return true
}
