package content

import (
	"context"
)

// The attachment ledger. Records are authoritative; stored files are a
// side effect. Detaching always removes the record, and removes the stored
// object on a best-effort basis: a storage failure is logged and swallowed so
// a flaky disk can never block a domain operation.

func (svc *Service) attachAll(ctx context.Context, repo Repository, parent ParentKind, parentID int, nas []NewAttachment) error {
	for _, na := range nas {
		if _, err := svc.attach(ctx, repo, parent, parentID, na); err != nil {
			return err
		}
	}
	return nil
}

func (svc *Service) attach(ctx context.Context, repo Repository, parent ParentKind, parentID int, na NewAttachment) (Attachment, error) {
	return repo.CreateAttachment(ctx, Attachment{
		Parent:   parent,
		ParentID: parentID,
		Type:     na.Type,
		Title:    na.Title,
		URL:      na.URL,
		VideoID:  na.VideoID,
		FileName: na.FileName,
	})
}

// detachByIDs removes the listed attachments, skipping ids that belong to a
// different parent. Used by the announcement/assignment edit surfaces.
func (svc *Service) detachByIDs(ctx context.Context, repo Repository, parent ParentKind, parentID int, ids []int) error {
	for _, id := range ids {
		att, err := repo.GetAttachment(ctx, id)
		if err != nil {
			return err
		}
		if att.Parent != parent || att.ParentID != parentID {
			return ErrAttachmentNotFound
		}
		if err := svc.detach(ctx, repo, att); err != nil {
			return err
		}
	}
	return nil
}

func (svc *Service) detachAll(ctx context.Context, repo Repository, parent ParentKind, parentID int) error {
	atts, err := repo.QueryAttachments(ctx, parent, parentID)
	if err != nil {
		return err
	}
	for _, att := range atts {
		if err := svc.detach(ctx, repo, att); err != nil {
			return err
		}
	}
	return nil
}

func (svc *Service) detach(ctx context.Context, repo Repository, att Attachment) error {
	if att.Type == AttachmentFile && att.URL != "" {
		if err := svc.files.Delete(ctx, att.URL); err != nil {
			svc.logger.Error("content: deleting stored file "+att.URL+": "+err.Error(), err)
		}
	}
	return repo.DeleteAttachment(ctx, att.ID)
}
