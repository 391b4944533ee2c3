package content

import (
	"context"
)

// Cascades. Each tree is taken down children-first so no record ever points
// at a missing parent, even if a step fails halfway through a transaction
// that cannot roll back (the dummy store).

// deleteAnnouncementTree removes an announcement, its comments and its
// attachments.
func (svc *Service) deleteAnnouncementTree(ctx context.Context, repo Repository, ann Announcement) error {
	if err := repo.DeleteCommentsByAnnouncement(ctx, ann.ID); err != nil {
		return err
	}
	if err := svc.detachAll(ctx, repo, ParentAnnouncement, ann.ID); err != nil {
		return err
	}
	return repo.DeleteAnnouncement(ctx, ann.ID)
}

// deleteAssignmentTree removes an assignment and its whole subtree. Unlike
// Unsubmit, deleting the assignment deletes submission-scoped comments too:
// there is no surviving parent to reattach them to.
func (svc *Service) deleteAssignmentTree(ctx context.Context, repo Repository, asg Assignment) error {
	subs, err := repo.QueryAssignmentSubmissions(ctx, asg.ID)
	if err != nil {
		return err
	}
	for _, sub := range subs {
		if err := svc.deleteSubmissionTree(ctx, repo, sub); err != nil {
			return err
		}
	}
	// direct assignment comments
	if err := repo.DeleteCommentsByAssignment(ctx, asg.ID); err != nil {
		return err
	}
	if err := svc.detachAll(ctx, repo, ParentAssignment, asg.ID); err != nil {
		return err
	}
	return repo.DeleteAssignment(ctx, asg.ID)
}

// deleteSubmissionTree removes a submission, its comments and its attachments.
func (svc *Service) deleteSubmissionTree(ctx context.Context, repo Repository, sub Submission) error {
	if err := repo.DeleteCommentsBySubmission(ctx, sub.ID); err != nil {
		return err
	}
	if err := svc.detachAll(ctx, repo, ParentSubmission, sub.ID); err != nil {
		return err
	}
	return repo.DeleteSubmission(ctx, sub.ID)
}

// PurgeUserContent removes everything the given users authored, in dependency
// order, and clears references to them on content that survives. Callers are
// expected to have vetoed class owners already; this routine does not check.
func (svc *Service) PurgeUserContent(ctx context.Context, userIDs ...int) error {
	if len(userIDs) == 0 {
		return nil
	}
	return svc.repo.Atomic(ctx, func(repo Repository) error {
		// references first: surviving comments must not point at the departed
		if err := repo.ClearCommentTargets(ctx, userIDs...); err != nil {
			return err
		}
		if err := repo.DeleteCommentsByAuthor(ctx, userIDs...); err != nil {
			return err
		}

		anns, err := repo.QueryAnnouncementsByAuthor(ctx, userIDs...)
		if err != nil {
			return err
		}
		for _, ann := range anns {
			if err := svc.deleteAnnouncementTree(ctx, repo, ann); err != nil {
				return err
			}
		}

		subs, err := repo.QuerySubmissionsByStudent(ctx, userIDs...)
		if err != nil {
			return err
		}
		for _, sub := range subs {
			if err := svc.deleteSubmissionTree(ctx, repo, sub); err != nil {
				return err
			}
		}

		asgs, err := repo.QueryAssignmentsByCreator(ctx, userIDs...)
		if err != nil {
			return err
		}
		for _, asg := range asgs {
			if err := svc.deleteAssignmentTree(ctx, repo, asg); err != nil {
				return err
			}
		}
		return nil
	})
}
