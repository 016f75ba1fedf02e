package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sky366trade/backend/internal/apperr"
	"github.com/sky366trade/backend/internal/logging"
	"github.com/sky366trade/backend/internal/models"
	"github.com/sky366trade/backend/internal/monitoring"
)

// MaxAncestorHops bounds the referral chain walk. A chain that runs deeper
// without reaching a root is reported as having no rewarding member.
const MaxAncestorHops = 7

// bonusTiers are the percentages paid to the 1st/2nd/3rd ancestor of the
// account that triggered a qualifying event.
var bonusTiers = []decimal.Decimal{
	decimal.NewFromInt(10),
	decimal.NewFromInt(5),
	decimal.NewFromInt(3),
}

// ReferralService owns the referral tree: attachments, the bounded ancestor
// walk, team bookkeeping and one-time reward distribution.
type ReferralService struct {
	db *gorm.DB
}

func NewReferralService(db *gorm.DB) *ReferralService {
	return &ReferralService{db: db}
}

// AncestorChain walks the parent references of username and returns the
// ordered ancestors (parent first), at most maxHops of them. The second
// return reports whether the walk terminated at a root within the bound.
func (s *ReferralService) AncestorChain(username string, maxHops int) ([]models.Account, bool, error) {
	return s.ancestorChain(s.db, username, maxHops)
}

func (s *ReferralService) ancestorChain(tx *gorm.DB, username string, maxHops int) ([]models.Account, bool, error) {
	var account models.Account
	if err := tx.Where("username = ?", username).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, apperr.ErrNotFound
		}
		return nil, false, err
	}

	ancestors := make([]models.Account, 0, maxHops)
	next := account.ParentUsername

	for next != nil {
		if len(ancestors) == maxHops {
			// Bound exceeded before reaching a root.
			return ancestors, false, nil
		}

		var parent models.Account
		if err := tx.Where("username = ?", *next).First(&parent).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Dangling parent reference truncates the chain.
				return ancestors, true, nil
			}
			return nil, false, err
		}

		ancestors = append(ancestors, parent)
		next = parent.ParentUsername
	}

	return ancestors, true, nil
}

// Attach links child under parent and propagates membership counts up the
// ancestor chain. The attachment is recorded even when the chain is deeper
// than MaxAncestorHops; that case returns ErrNoRewardingMember after the
// mutations are committed.
func (s *ReferralService) Attach(childUsername, parentUsername string) error {
	if childUsername == "" || parentUsername == "" {
		return fmt.Errorf("%w: username and parent username are required", apperr.ErrInvalidInput)
	}
	if childUsername == parentUsername {
		return fmt.Errorf("%w: cannot attach an account under itself", apperr.ErrInvalidInput)
	}

	var parent models.Account
	if err := s.db.Where("username = ?", parentUsername).First(&parent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: parent account %q", apperr.ErrNotFound, parentUsername)
		}
		return err
	}

	var child models.Account
	if err := s.db.Where("username = ?", childUsername).First(&child).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: account %q", apperr.ErrNotFound, childUsername)
		}
		return err
	}

	if child.ParentUsername != nil {
		return fmt.Errorf("%w: account %q is already attached", apperr.ErrConflict, childUsername)
	}

	// The child must not already be an ancestor of the parent: that link
	// would close a cycle and every later chain walk would loop. This walk
	// is unbounded since a chain deeper than MaxAncestorHops can still
	// contain the child.
	seen := map[string]bool{parentUsername: true}
	next := parent.ParentUsername
	for next != nil {
		if *next == childUsername {
			return fmt.Errorf("%w: %q is an ancestor of %q", apperr.ErrConflict, childUsername, parentUsername)
		}
		if seen[*next] {
			break
		}
		seen[*next] = true

		var ancestor models.Account
		if err := s.db.Where("username = ?", *next).First(&ancestor).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				break
			}
			return err
		}
		next = ancestor.ParentUsername
	}

	reachedRoot := true

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Account{}).Where("username = ?", childUsername).
			Updates(map[string]interface{}{
				"parent_username": parentUsername,
				"team_name":       childUsername,
			}).Error; err != nil {
			return err
		}

		// The child becomes the root of its own future subtree.
		if err := s.ensureTeam(tx, childUsername); err != nil {
			return err
		}

		ancestors, rooted, err := s.ancestorChain(tx, childUsername, MaxAncestorHops)
		if err != nil {
			return err
		}
		reachedRoot = rooted

		for _, ancestor := range ancestors {
			if err := s.ensureTeam(tx, ancestor.Username); err != nil {
				return err
			}
			if err := tx.Model(&models.Team{}).Where("name = ?", ancestor.Username).
				Update("member_count", gorm.Expr("member_count + 1")).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	logging.Logger.Info("referral attached",
		zap.String("child", childUsername),
		zap.String("parent", parentUsername),
		zap.Bool("reached_root", reachedRoot),
	)

	if !reachedRoot {
		return apperr.ErrNoRewardingMember
	}
	return nil
}

// DistributeReward pays the tiered referral bonus for username's qualifying
// event of the given amount. The disbursement flag is claimed with an atomic
// conditional update inside the same transaction as the credits, so two
// concurrent calls cannot both pay out. Returns the total amount credited to
// ancestor wallets.
func (s *ReferralService) DistributeReward(username string, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("%w: amount must be positive", apperr.ErrInvalidInput)
	}

	credited := decimal.Zero

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var account models.Account
		if err := tx.Where("username = ?", username).First(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: account %q", apperr.ErrNotFound, username)
			}
			return err
		}

		if account.ParentUsername == nil {
			return apperr.ErrNoRewardingMember
		}

		// Claim the one-way flag. Zero rows means another call got here
		// first or the bonus was paid long ago.
		claim := tx.Model(&models.Account{}).
			Where("username = ? AND referral_paid = ?", username, false).
			Update("referral_paid", true)
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected == 0 {
			return apperr.ErrAlreadyProcessed
		}

		ancestors, _, err := s.ancestorChain(tx, username, len(bonusTiers))
		if err != nil {
			return err
		}

		for i, ancestor := range ancestors {
			bonus := amount.Mul(bonusTiers[i]).Div(decimal.NewFromInt(100))
			if err := tx.Model(&models.Account{}).Where("username = ?", ancestor.Username).
				Update("wallet", gorm.Expr("wallet + ?", bonus)).Error; err != nil {
				return err
			}
			credited = credited.Add(bonus)
		}

		// Tiers with no ancestor to receive them overflow into the
		// triggering account's team pool.
		overflow := decimal.Zero
		for i := len(ancestors); i < len(bonusTiers); i++ {
			overflow = overflow.Add(amount.Mul(bonusTiers[i]).Div(decimal.NewFromInt(100)))
		}
		if overflow.IsPositive() && account.TeamName != "" {
			if err := s.ensureTeam(tx, account.TeamName); err != nil {
				return err
			}
			if err := tx.Model(&models.Team{}).Where("name = ?", account.TeamName).
				Update("wallet", gorm.Expr("wallet + ?", overflow)).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	monitoring.RewardsDistributedTotal.Inc()
	logging.Logger.Info("referral reward distributed",
		zap.String("username", username),
		zap.String("amount", amount.String()),
		zap.String("credited", credited.String()),
	)

	return credited, nil
}

// GetTeam returns the team aggregate keyed by the root recruiter's username.
func (s *ReferralService) GetTeam(name string) (*models.Team, error) {
	var team models.Team
	if err := s.db.Where("name = ?", name).First(&team).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: team %q", apperr.ErrNotFound, name)
		}
		return nil, err
	}
	return &team, nil
}

// GetDirectReferrals lists the accounts attached directly under username.
func (s *ReferralService) GetDirectReferrals(username string) ([]models.Account, error) {
	var referrals []models.Account
	if err := s.db.Where("parent_username = ?", username).Find(&referrals).Error; err != nil {
		return nil, err
	}
	return referrals, nil
}

// ensureTeam creates the team record if it does not exist. MemberCount
// starts at 1: the recruiter counts as the first member.
func (s *ReferralService) ensureTeam(tx *gorm.DB, name string) error {
	team := models.Team{Name: name, MemberCount: 1, Wallet: decimal.Zero}
	return tx.Where("name = ?", name).FirstOrCreate(&team).Error
}
