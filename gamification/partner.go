package gamification

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/bondlyapp/bondly/models"
)

// LinkPartners links the caller to the owner of the invitation code. Both
// user rows are updated in one transaction, locked in deterministic ID order
// so two concurrent link attempts against the same code cannot both win and
// cannot deadlock. The relationship start date is stamped on both sides.
func (e *Engine) LinkPartners(userID, invitationCode string) (*models.User, error) {
	code := strings.ToUpper(strings.TrimSpace(invitationCode))
	if len(code) != 8 {
		return nil, ErrInvalidInviteCode
	}

	var partner models.User

	err := e.db.Transaction(func(tx *gorm.DB) error {
		var target models.User
		err := tx.Take(&target, "invitation_code = ?", code).Error
		if err == gorm.ErrRecordNotFound {
			return ErrInvalidInviteCode
		}
		if err != nil {
			return err
		}
		if target.ID == userID {
			return ErrSelfLink
		}

		first, second := userID, target.ID
		if first > second {
			first, second = second, first
		}

		var a, b models.User
		if err := tx.Clauses(lockForUpdate()).Take(&a, "id = ?", first).Error; err != nil {
			return err
		}
		if err := tx.Clauses(lockForUpdate()).Take(&b, "id = ?", second).Error; err != nil {
			return err
		}

		caller, invitee := &a, &b
		if caller.ID != userID {
			caller, invitee = &b, &a
		}

		// Re-check under the locks: the loser of a race sees the winner's link.
		if caller.HasPartner() {
			return ErrAlreadyLinked
		}
		if invitee.HasPartner() {
			return ErrPartnerTaken
		}
		if invitee.InvitationCode == nil || *invitee.InvitationCode != code {
			return ErrInvalidInviteCode
		}

		today := e.Today()
		caller.PartnerID = &invitee.ID
		invitee.PartnerID = &caller.ID
		caller.RelationshipStartDate = &today
		invitee.RelationshipStartDate = &today

		if err := tx.Save(caller).Error; err != nil {
			return err
		}
		if err := tx.Save(invitee).Error; err != nil {
			return err
		}

		note := models.Notification{
			UserID:           invitee.ID,
			NotificationType: models.NotifyPartnerJoined,
			TitleEN:          fmt.Sprintf("%s is now your partner!", caller.Username),
			TitleHI:          fmt.Sprintf("%s अब आपके साथी हैं!", caller.Username),
			MessageEN:        fmt.Sprintf("%s has accepted your invitation.", caller.Username),
			MessageHI:        fmt.Sprintf("%s ने आपका निमंत्रण स्वीकार किया है।", caller.Username),
			Data:             models.JSONMap{"partner_id": caller.ID},
		}
		if err := tx.Create(&note).Error; err != nil {
			return err
		}

		partner = *invitee
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &partner, nil
}

// UnlinkPartners removes the link from both sides in one transaction, taking
// the row locks in ID order like LinkPartners does.
func (e *Engine) UnlinkPartners(userID string) error {
	return e.db.Transaction(func(tx *gorm.DB) error {
		var peek models.User
		if err := tx.Take(&peek, "id = ?", userID).Error; err != nil {
			return err
		}
		if !peek.HasPartner() {
			return ErrNoPartner
		}

		first, second := userID, *peek.PartnerID
		if first > second {
			first, second = second, first
		}

		var a, b models.User
		if err := tx.Clauses(lockForUpdate()).Take(&a, "id = ?", first).Error; err != nil {
			return err
		}
		if err := tx.Clauses(lockForUpdate()).Take(&b, "id = ?", second).Error; err != nil {
			return err
		}

		user, partner := &a, &b
		if user.ID != userID {
			user, partner = &b, &a
		}
		if !user.HasPartner() {
			return ErrNoPartner
		}

		user.PartnerID = nil
		partner.PartnerID = nil
		if err := tx.Save(user).Error; err != nil {
			return err
		}
		return tx.Save(partner).Error
	})
}
