package sandbox

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/guardian/internal/guardian"
)

// claimRequest はメンバー紐付け申請のリクエストボディ。
type claimRequest struct {
	NISN         string `json:"nisn"         binding:"required"`
	Name         string `json:"name"         binding:"required"`
	Relationship string `json:"relationship" binding:"required,oneof=parent guardian other"`
}

// handleListMembers は紐付け済みのメンバー一覧を返すハンドラを返す。
func (s *Server) handleListMembers() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, g, ok := s.currentUser(c)
		if !ok {
			return
		}

		members, err := s.store.membersForGuardian(c.Request.Context(), g.ID)
		if err != nil {
			log.Printf("[Sandbox] メンバー一覧取得エラー: %v", err)
			fail(c, http.StatusInternalServerError, "メンバー一覧の取得に失敗しました")
			return
		}
		respond(c, http.StatusOK, "", guardian.MembersResponse{Members: members, Count: len(members)})
	}
}

// handleGetMember はメンバーの詳細をウォレット付きで返すハンドラを返す。
func (s *Server) handleGetMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		m, ok := s.linkedMember(c)
		if !ok {
			return
		}

		wallets, _, err := s.store.walletsForMember(c.Request.Context(), m.ID)
		if err != nil {
			log.Printf("[Sandbox] ウォレット取得エラー: %v", err)
			fail(c, http.StatusInternalServerError, "ウォレットの取得に失敗しました")
			return
		}
		m.Wallets = wallets
		respond(c, http.StatusOK, "", m)
	}
}

// handleListWallets はメンバーのウォレット一覧を返すハンドラを返す。
func (s *Server) handleListWallets() gin.HandlerFunc {
	return func(c *gin.Context) {
		m, ok := s.linkedMember(c)
		if !ok {
			return
		}

		wallets, total, err := s.store.walletsForMember(c.Request.Context(), m.ID)
		if err != nil {
			log.Printf("[Sandbox] ウォレット取得エラー: %v", err)
			fail(c, http.StatusInternalServerError, "ウォレットの取得に失敗しました")
			return
		}
		respond(c, http.StatusOK, "", guardian.WalletsResponse{
			Member:       guardian.MemberRef{ID: m.ID, Name: m.Name, MemberNumber: m.MemberNumber},
			Wallets:      wallets,
			TotalBalance: total,
		})
	}
}

// handleClaimMember はNISNと氏名でメンバーを紐付けるハンドラを返す。
// サンドボックスでは申請を即時承認する。
func (s *Server) handleClaimMember() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req claimRequest
		if !bindJSON(c, &req) {
			return
		}
		_, g, ok := s.currentUser(c)
		if !ok {
			return
		}
		ctx := c.Request.Context()

		memberID, err := s.store.findMemberForClaim(ctx, req.NISN, req.Name)
		if errors.Is(err, errNotFound) {
			failValidation(c, map[string][]string{"nisn": {"NISNと氏名に一致するメンバーが見つかりません"}})
			return
		}
		if err != nil {
			log.Printf("[Sandbox] メンバー検索エラー: %v", err)
			fail(c, http.StatusInternalServerError, "メンバーの検索に失敗しました")
			return
		}

		linked, err := s.store.linkMember(ctx, g.ID, memberID, guardian.Relationship(req.Relationship))
		if err != nil {
			log.Printf("[Sandbox] メンバー紐付けエラー: %v", err)
			fail(c, http.StatusInternalServerError, "メンバーの紐付けに失敗しました")
			return
		}
		if !linked {
			failValidation(c, map[string][]string{"nisn": {"このメンバーは既に紐付けられています"}})
			return
		}

		m, err := s.store.memberForGuardian(ctx, g.ID, memberID)
		if err != nil {
			log.Printf("[Sandbox] メンバー取得エラー: %v", err)
			fail(c, http.StatusInternalServerError, "メンバーの取得に失敗しました")
			return
		}
		respond(c, http.StatusCreated, "メンバーを紐付けました", guardian.ClaimMemberResponse{
			ClaimStatus: m.ClaimStatus,
			Member:      *m,
		})
	}
}

// linkedMember はパスのメンバーが現在の保護者に紐付いていれば返す。
func (s *Server) linkedMember(c *gin.Context) (*guardian.Member, bool) {
	_, g, ok := s.currentUser(c)
	if !ok {
		return nil, false
	}

	m, err := s.store.memberForGuardian(c.Request.Context(), g.ID, c.Param("id"))
	if errors.Is(err, errNotFound) {
		fail(c, http.StatusNotFound, "メンバーが見つかりません")
		return nil, false
	}
	if err != nil {
		log.Printf("[Sandbox] メンバー取得エラー: %v", err)
		fail(c, http.StatusInternalServerError, "メンバーの取得に失敗しました")
		return nil, false
	}
	return m, true
}
