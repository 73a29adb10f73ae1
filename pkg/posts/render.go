package posts

import (
	"net/url"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/chongma/gql-subscriptions-client/pkg/view"
)

// UpdatePath is the form action that asks the page to update a post.
func UpdatePath(id string) string {
	return "/posts/" + url.PathEscape(id)
}

// ShowPost renders one post. Every call returns new nodes.
func ShowPost(post Post, class string) *html.Node {
	return view.Element(atom.Div,
		view.Class(class),
		view.Node(showID(post)),
		view.Node(showBody(post)),
	)
}

// ShowPosts renders the post list as one container.
func ShowPosts(posts []Post) *html.Node {
	container := view.Element(atom.Div)
	for _, post := range posts {
		container.AppendChild(ShowPost(post, view.ClassPostContainer))
	}
	return container
}

// RenderPostsEvent is the reconcile.RenderFunc of the post list subscription.
func RenderPostsEvent(payload []byte) (*html.Node, error) {
	posts, err := DecodePostsEvent(payload)
	if err != nil {
		return nil, err
	}
	return ShowPosts(posts), nil
}

// RenderPostEvent is the reconcile.RenderFunc of a single post subscription.
func RenderPostEvent(payload []byte) (*html.Node, error) {
	post, err := DecodePostEvent(payload)
	if err != nil {
		return nil, err
	}
	return ShowPost(post, view.ClassPostContainerIndividual), nil
}

func renderPost(post Post) (*html.Node, error) {
	return ShowPost(post, view.ClassPostContainerIndividual), nil
}

func renderPosts(posts []Post) (*html.Node, error) {
	return ShowPosts(posts), nil
}

func showID(post Post) *html.Node {
	return view.Element(atom.Div,
		view.Node(view.Element(atom.Form,
			view.Attr("method", "post"),
			view.Attr("action", UpdatePath(post.ID)),
			view.Node(view.Element(atom.Button,
				view.Attr("type", "submit"),
				view.Text(post.ID),
			)),
		)),
	)
}

func showBody(post Post) *html.Node {
	return view.Element(atom.Div, view.Text(post.Body))
}
