// Package main seeds the board database with the fixed categories and,
// with -demo, a small set of demo users, posts and comments.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/enxxi/v-board/internal/config"
	"github.com/enxxi/v-board/internal/core/apperror"
	"github.com/enxxi/v-board/internal/domain/category"
	"github.com/enxxi/v-board/internal/domain/comment"
	"github.com/enxxi/v-board/internal/domain/post"
	"github.com/enxxi/v-board/internal/domain/user"
	"github.com/enxxi/v-board/internal/infrastructure/storage/postgres"
	"github.com/enxxi/v-board/internal/infrastructure/storage/postgres/board_repo"
	"github.com/enxxi/v-board/pkg/logger"
)

func main() {
	demo := flag.Bool("demo", false, "also create demo users, posts and comments")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Development: true})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DSN()))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)

	categoryRepo := board_repo.NewCategoryRepo(txManager)
	categoryService := category.NewService(categoryRepo, txManager)

	if err := categoryService.Seed(ctx); err != nil {
		log.Fatalw("failed to seed categories", "error", err)
	}
	log.Info("categories seeded")

	if !*demo {
		return
	}

	userRepo := board_repo.NewUserRepo(txManager)
	postRepo := board_repo.NewPostRepo(txManager)
	commentRepo := board_repo.NewCommentRepo(txManager)

	err = txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		admin, err := seedUser(ctx, userRepo, "admin", "admin@vboard.dev", "admin1234", user.RoleAdmin)
		if err != nil {
			return err
		}
		alice, err := seedUser(ctx, userRepo, "alice", "alice@vboard.dev", "alice1234", user.RoleUser)
		if err != nil {
			return err
		}
		bob, err := seedUser(ctx, userRepo, "bob", "bob@vboard.dev", "bob12345", user.RoleUser)
		if err != nil {
			return err
		}
		if admin == nil || alice == nil || bob == nil {
			// Some account already exists; assume demo data is in place.
			return nil
		}

		notice, err := categoryRepo.GetByName(ctx, category.Notice)
		if err != nil {
			return err
		}
		qna, err := categoryRepo.GetByName(ctx, category.QnA)
		if err != nil {
			return err
		}

		welcome := post.New("Welcome to the board", "House rules: be kind, stay on topic.", notice.ID, admin.ID)
		if err := postRepo.Create(ctx, welcome); err != nil {
			return err
		}

		question := post.New("How do replies work?", "Can I reply to a reply?", qna.ID, alice.ID)
		if err := postRepo.Create(ctx, question); err != nil {
			return err
		}

		root := comment.NewRoot("Yes, replies nest.", question.ID, bob.ID)
		if err := commentRepo.Create(ctx, root); err != nil {
			return err
		}
		reply := comment.NewReply("Good to know, thanks!", root, alice.ID)
		return commentRepo.Create(ctx, reply)
	})
	if err != nil {
		log.Fatalw("failed to seed demo data", "error", err)
	}

	log.Info("demo data seeded")
}

// seedUser creates an account, returning (nil, nil) when the email is
// already taken.
func seedUser(ctx context.Context, repo user.Repository, username, email, password string, role user.Role) (*user.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := user.New(username, email, string(hash))
	u.Role = role

	if err := repo.Create(ctx, u); err != nil {
		if appErr, ok := apperror.AsAppError(err); ok && appErr.Code == apperror.CodeDuplicate {
			return nil, nil
		}
		return nil, err
	}

	return u, nil
}
