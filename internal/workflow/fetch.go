package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teemow/grnsync/internal/drive"
	"github.com/teemow/grnsync/internal/gmail"
	"github.com/teemow/grnsync/internal/instrumentation"
	"github.com/teemow/grnsync/internal/logging"
)

// FetchReport summarizes a fetch phase.
type FetchReport struct {
	RunID string
	Query string
	// Emails is the number of messages the search returned.
	Emails int
	// Processed counts messages with at least one saved attachment.
	Processed int
	Saved     int
	Failed    int
	Files     []*drive.FileInfo
}

// Fetch saves the matching attachments of recent messages under
// BaseFolder/<sender> in Drive. Search and base-folder failures abort the
// phase; a failing message or attachment is logged and counted.
func (r *Runner) Fetch(ctx context.Context) (*FetchReport, error) {
	if r.mail == nil || r.drive == nil {
		return nil, fmt.Errorf("fetch needs both a mailbox and a drive client")
	}

	report := &FetchReport{RunID: r.newID(), Query: r.opts.Query.Build(r.now())}
	logger := logging.WithRun(logging.WithOperation(r.logger, "fetch"), report.RunID)
	ctx, span := instrumentation.StartSpan(ctx, "grnsync.fetch",
		instrumentation.NewSpanAttributeBuilder().WithRun(report.RunID).Build()...)
	defer span.End()

	r.sink.Printf("Starting Gmail workflow...")
	ids, err := r.mail.Search(ctx, report.Query, r.opts.MaxResults)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return report, fmt.Errorf("gmail search failed: %w", err)
	}
	report.Emails = len(ids)
	r.sink.Printf("Gmail search completed. Found %d emails", len(ids))
	if len(ids) == 0 {
		r.sink.Printf("No emails found matching criteria")
		return report, nil
	}

	baseID, err := r.drive.EnsureFolder(ctx, r.opts.BaseFolder, r.opts.ParentFolderID)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return report, fmt.Errorf("failed to create base folder %s: %w", r.opts.BaseFolder, err)
	}

	senderFolders := map[string]string{}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		saved, failed, err := r.fetchMessage(ctx, logger, report, id, baseID, senderFolders)
		report.Saved += saved
		report.Failed += failed
		if err != nil {
			report.Failed++
			r.sink.Printf("ERROR: Failed to process email %s: %v", id, err)
			logger.Warn("message failed", slog.String("message_id", id), logging.Err(err))
			continue
		}
		if saved > 0 {
			report.Processed++
		}
	}

	r.sink.Printf("Gmail workflow completed! Processed %d attachments from %d emails", report.Saved, report.Processed)
	logger.Info("fetch finished",
		slog.Int("emails", report.Emails),
		slog.Int("saved", report.Saved),
		slog.Int("failed", report.Failed))
	instrumentation.SetSpanSuccess(span)
	return report, nil
}

// fetchMessage saves the wanted attachments of one message. The error
// return is reserved for failures that affect the whole message.
func (r *Runner) fetchMessage(ctx context.Context, logger *slog.Logger, report *FetchReport, id, baseID string, folders map[string]string) (saved, failed int, err error) {
	msg, err := r.mail.GetMessage(ctx, id)
	if err != nil {
		return 0, 0, err
	}
	atts := gmail.FilterAttachments(msg.Attachments, r.opts.Extensions)
	if len(atts) == 0 {
		return 0, 0, nil
	}

	subject := []rune(msg.Subject)
	if len(subject) > 50 {
		subject = subject[:50]
	}
	sender := msg.SenderEmail()
	r.sink.Printf("Processing email: %s from %s", string(subject), msg.From)

	folderName := gmail.SanitizeFilename(sender)
	folderID, ok := folders[folderName]
	if !ok {
		folderID, err = r.drive.EnsureFolder(ctx, folderName, baseID)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to create sender folder: %w", err)
		}
		folders[folderName] = folderID
	}

	for _, att := range atts {
		info, err := r.saveAttachment(ctx, msg, att, folderID)
		if err != nil {
			failed++
			r.metrics.RecordAttachment(ctx, instrumentation.StatusError, sender)
			r.sink.Printf("ERROR processing attachment %s: %v", att.Filename, err)
			logger.Warn("attachment failed",
				logging.File(att.Filename),
				logging.Sender(sender),
				logging.Err(err))
			continue
		}
		saved++
		report.Files = append(report.Files, info)
		r.metrics.RecordAttachment(ctx, instrumentation.StatusSuccess, sender)
		r.sink.Printf("Uploaded file: %s", att.Filename)
	}
	if saved > 0 {
		r.sink.Printf("Found %d attachments in: %s", saved, string(subject))
	}
	return saved, failed, nil
}

func (r *Runner) saveAttachment(ctx context.Context, msg *gmail.Message, att gmail.Attachment, folderID string) (*drive.FileInfo, error) {
	data, err := r.mail.GetAttachment(ctx, msg.ID, att.AttachmentID)
	if err != nil {
		return nil, err
	}
	name := msg.ID + "_" + gmail.SanitizeFilename(att.Filename)
	return r.drive.Upload(ctx, name, folderID, drive.UploadMimeType(att.Filename, data), data)
}
