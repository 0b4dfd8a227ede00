package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatrelay/backend/internal/models"
)

// ListUsers returns every registered handle with its presence flag.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.Store.ListUsers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "error retrieving users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "users": users})
}

type addFriendRequest struct {
	FriendUsername string `json:"friend_username"`
}

// AddFriend writes both friendship edges and the pair's queue conversation in
// one transaction, so the conversation exists the moment the pair becomes
// friends.
func (h *Handler) AddFriend(c *gin.Context) {
	var req addFriendRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.FriendUsername == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "friend_username is required"})
		return
	}

	userID := c.GetString(ctxUserID)

	friend, found, err := h.Store.FindUserByHandle(c.Request.Context(), req.FriendUsername)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "error looking up user"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "friend user not found"})
		return
	}
	if friend.ID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "cannot add yourself as a friend"})
		return
	}

	already, err := h.Store.FindFriendship(c.Request.Context(), userID, friend.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "error checking friendship"})
		return
	}
	if already {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "you are already friends"})
		return
	}

	if _, err := h.Store.AddFriend(c.Request.Context(), userID, friend.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "error adding friend"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "message": friend.Username + " added as a friend"})
}

type createGroupRequest struct {
	GroupName string   `json:"group_name"`
	Friends   []string `json:"friends"`
}

// CreateGroup creates a topic conversation with the owner and the listed
// friends as members. Every listed member must already be a friend of the
// owner.
func (h *Handler) CreateGroup(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.GroupName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "group_name and friends are required"})
		return
	}
	if len(req.Friends) < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "the friends list must contain at least one friend"})
		return
	}

	ctx := c.Request.Context()
	userID := c.GetString(ctxUserID)

	owner, found, err := h.Store.FindUserByID(ctx, userID)
	if err != nil || !found {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "error loading account"})
		return
	}

	members := make([]*models.User, 0, len(req.Friends))
	for _, name := range req.Friends {
		friend, found, err := h.Store.FindUserByHandle(ctx, name)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "error looking up user"})
			return
		}
		if !found {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "user " + name + " does not exist"})
			return
		}
		isFriend, err := h.Store.FindFriendship(ctx, userID, friend.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "error checking friendship"})
			return
		}
		if !isFriend {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "user " + name + " is not your friend"})
			return
		}
		members = append(members, friend)
	}

	if _, found, err := h.Store.FindTopicByName(ctx, req.GroupName); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "error checking group name"})
		return
	} else if found {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "a group with that name already exists"})
		return
	}

	if _, err := h.Store.CreateGroup(ctx, owner, req.GroupName, members); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "error creating group"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "message": "group created"})
}
